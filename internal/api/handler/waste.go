package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/api/models"
	"github.com/ecosphere/ecosphere/internal/api/response"
	"github.com/ecosphere/ecosphere/internal/classifier"
	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/user"
)

// maxImageBytes bounds uploaded photos.
const maxImageBytes = 10 << 20

// WasteHandler handles waste classification and disposal endpoints.
type WasteHandler struct {
	classifier  classifier.Classifier
	engine      *progression.Engine
	userService *user.Service
	logger      zerolog.Logger
}

// NewWasteHandler creates a new WasteHandler.
func NewWasteHandler(c classifier.Classifier, engine *progression.Engine, userService *user.Service, logger zerolog.Logger) *WasteHandler {
	return &WasteHandler{
		classifier:  c,
		engine:      engine,
		userService: userService,
		logger:      logger,
	}
}

// Classify handles POST /v1/waste/classify - multipart upload with an "image" field.
// The result is a suggestion; no points are credited.
func (h *WasteHandler) Classify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<10)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		response.BadRequest(w, r, "expected multipart form with an image field", nil)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, r, "validation error", []models.FieldError{
			{Field: "image", Message: "image is required", Code: "REQUIRED"},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(w, r, "unable to read image", nil)
		return
	}

	result, err := h.classifier.Classify(r.Context(), classifier.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		switch {
		case errors.Is(err, classifier.ErrNoImage):
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "image", Message: "image must not be empty", Code: "REQUIRED"},
			})
		case classifier.IsUpstreamError(err):
			response.ServiceUnavailable(w, r, "classification service unavailable")
		default:
			internalError(w, r, h.logger, err, "classification failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// History handles GET /v1/waste/history.
func (h *WasteHandler) History(w http.ResponseWriter, r *http.Request) {
	u, err := h.userService.GetMe(r.Context(), GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, r, "user not found")
			return
		}
		internalError(w, r, h.logger, err, "failed to load history")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewWasteHistory(u.WasteClassifications))
}

// RecordDisposal handles POST /v1/waste/disposals - credits a classified disposal.
// Missing or zero points default to models.DefaultDisposalPoints.
func (h *WasteHandler) RecordDisposal(w http.ResponseWriter, r *http.Request) {
	var input models.DisposalInput
	if !decodeJSON(w, r, &input, false) {
		return
	}

	wasteType := strings.ToLower(strings.TrimSpace(input.Type))
	if !classifier.IsWasteType(wasteType) {
		response.BadRequest(w, r, "validation error", []models.FieldError{
			{Field: "type", Message: "type must be one of " + strings.Join(classifier.WasteTypes(), ", "), Code: "INVALID"},
		})
		return
	}

	points := models.DefaultDisposalPoints
	if input.Points != nil && *input.Points != 0 {
		points = max(*input.Points, 0)
	}

	action := progression.WasteClassification{Points: points, WasteType: wasteType}
	if input.Confidence != nil {
		action.Confidence = *input.Confidence
	}

	outcome, err := h.engine.Record(r.Context(), GetUserID(r.Context()), action)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, r, "user not found")
			return
		}
		internalError(w, r, h.logger, err, "failed to record disposal")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewActionResult(outcome))
}
