package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/provider/resilience"
)

// ProviderName identifies the remote classifier in the resilience registry.
const ProviderName = "waste-classifier"

// maxResponseSize bounds the body read from the remote service.
const maxResponseSize = 1 << 20

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteConfig holds configuration for the remote classifier.
type RemoteConfig struct {
	// BaseURL of the AI service; the client posts to {BaseURL}/classify.
	BaseURL string

	// HTTPClient defaults to a resilient client named ProviderName.
	HTTPClient HTTPDoer

	// Registry receives the default resilient client.
	Registry *resilience.Registry

	// Fallback serves requests the remote service cannot. Nil disables it.
	Fallback Classifier

	Logger  zerolog.Logger
	Metrics *Metrics
}

// Remote classifies photos through the external AI service.
type Remote struct {
	baseURL    string
	httpClient HTTPDoer
	fallback   Classifier
	logger     zerolog.Logger
	metrics    *Metrics
}

// NewRemote creates a remote classifier.
func NewRemote(cfg RemoteConfig) *Remote {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         15 * time.Second,
			MaxRetries:      2,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Registry:        cfg.Registry,
		})
	}

	return &Remote{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		fallback:   cfg.Fallback,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

type remoteResult struct {
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Points     *int     `json:"points"`
	Tips       string   `json:"tips"`
	Locations  []string `json:"locations"`
}

// Classify sends the photo to the AI service, falling back to the
// configured classifier when the service fails or answers nonsense.
func (c *Remote) Classify(ctx context.Context, img Image) (*Result, error) {
	if len(img.Data) == 0 {
		return nil, ErrNoImage
	}

	start := time.Now()
	result, err := c.classify(ctx, img)
	c.metrics.recordRequest(ctx, time.Since(start), err)
	if err == nil {
		return result, nil
	}

	if c.fallback == nil || ctx.Err() != nil {
		return nil, err
	}

	c.logger.Warn().Err(err).Msg("remote classification failed, using fallback")
	c.metrics.recordFallback(ctx)
	return c.fallback.Classify(ctx, img)
}

func (c *Remote) classify(ctx context.Context, img Image) (*Result, error) {
	body, contentType, err := multipartImage(img)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamFailure, resp.StatusCode)
	}

	var raw remoteResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUpstreamFailure, err)
	}

	return normalize(raw)
}

// normalize validates the service answer and fills what it left out.
func normalize(raw remoteResult) (*Result, error) {
	wasteType := strings.ToLower(strings.TrimSpace(raw.Type))
	if !IsWasteType(wasteType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", ErrUpstreamFailure, raw.Confidence)
	}

	points := int(raw.Confidence * 100)
	if raw.Points != nil && *raw.Points >= 0 {
		points = *raw.Points
	}

	tips := raw.Tips
	if tips == "" {
		tips = TipFor(wasteType)
	}

	locations := raw.Locations
	if len(locations) == 0 {
		locations = slices.Clone(DropOffLocations)
	}

	return &Result{
		Type:       wasteType,
		Confidence: raw.Confidence,
		Points:     points,
		Tips:       tips,
		Locations:  locations,
	}, nil
}

func multipartImage(img Image) (*bytes.Buffer, string, error) {
	filename := img.Filename
	if filename == "" {
		filename = "image"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("write image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// IsUpstreamError reports whether err came from the remote service.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamFailure) || errors.Is(err, ErrUnknownType)
}

var _ Classifier = (*Remote)(nil)
