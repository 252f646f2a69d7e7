package classifier_test

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosphere/ecosphere/internal/classifier"
	"github.com/ecosphere/ecosphere/internal/provider/resilience"
)

var photo = classifier.Image{Filename: "garrafa.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}}

func TestSimulated_Ranges(t *testing.T) {
	sim := classifier.NewSimulated(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		result, err := sim.Classify(context.Background(), photo)
		require.NoError(t, err)

		assert.True(t, classifier.IsWasteType(result.Type), result.Type)
		assert.GreaterOrEqual(t, result.Confidence, 0.85)
		assert.Less(t, result.Confidence, 0.95)
		assert.GreaterOrEqual(t, result.Points, 50)
		assert.LessOrEqual(t, result.Points, 99)
		assert.Equal(t, classifier.TipFor(result.Type), result.Tips)
		assert.Equal(t, classifier.DropOffLocations, result.Locations)
	}
}

func TestSimulated_Deterministic(t *testing.T) {
	a := classifier.NewSimulated(rand.NewPCG(7, 7))
	b := classifier.NewSimulated(rand.NewPCG(7, 7))

	ra, err := a.Classify(context.Background(), photo)
	require.NoError(t, err)
	rb, err := b.Classify(context.Background(), photo)
	require.NoError(t, err)

	assert.Equal(t, ra, rb)
}

func TestSimulated_NoImage(t *testing.T) {
	_, err := classifier.NewSimulated(nil).Classify(context.Background(), classifier.Image{})
	assert.ErrorIs(t, err, classifier.ErrNoImage)
}

func TestTipFor(t *testing.T) {
	for _, wasteType := range classifier.WasteTypes() {
		assert.NotEqual(t, classifier.TipFor("unknown"), classifier.TipFor(wasteType), wasteType)
	}
	assert.Len(t, classifier.WasteTypes(), 5)
	assert.False(t, classifier.IsWasteType("isopor"))
}

func newRemote(t *testing.T, handler http.HandlerFunc, fallback classifier.Classifier) *classifier.Remote {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return classifier.NewRemote(classifier.RemoteConfig{
		BaseURL: server.URL + "/",
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:            "test-classifier",
			Timeout:         time.Second,
			MaxRetries:      1,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		}),
		Fallback: fallback,
		Logger:   zerolog.Nop(),
	})
}

func TestRemote_Classify(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/classify", r.URL.Path)

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, photo.Data, data)
		assert.Equal(t, "garrafa.jpg", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":                "Vidro",
			"confidence":          0.91,
			"points":              91,
			"tips":                "Remova tampas.",
			"recycling_locations": "Encontre pontos de coleta próximos para vidro",
		})
	}, nil)

	result, err := remote.Classify(context.Background(), photo)
	require.NoError(t, err)

	assert.Equal(t, classifier.TypeGlass, result.Type)
	assert.InDelta(t, 0.91, result.Confidence, 1e-9)
	assert.Equal(t, 91, result.Points)
	assert.Equal(t, "Remova tampas.", result.Tips)
	assert.Equal(t, classifier.DropOffLocations, result.Locations)
}

func TestRemote_PointsDerivedFromConfidence(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type":"papel","confidence":0.734}`))
	}, nil)

	result, err := remote.Classify(context.Background(), photo)
	require.NoError(t, err)
	assert.Equal(t, 73, result.Points)
	assert.Equal(t, classifier.TipFor(classifier.TypePaper), result.Tips)
}

func TestRemote_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantErr: classifier.ErrUpstreamFailure,
		},
		{
			name:    "bad request",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) },
			wantErr: classifier.ErrUpstreamFailure,
		},
		{
			name:    "garbage body",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>")) },
			wantErr: classifier.ErrUpstreamFailure,
		},
		{
			name: "unknown type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"type":"isopor","confidence":0.9}`))
			},
			wantErr: classifier.ErrUnknownType,
		},
		{
			name: "confidence out of range",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"type":"metal","confidence":3}`))
			},
			wantErr: classifier.ErrUpstreamFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newRemote(t, tt.handler, nil).Classify(context.Background(), photo)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, classifier.IsUpstreamError(err))
		})
	}
}

func TestRemote_FallsBack(t *testing.T) {
	var calls atomic.Int32
	remote := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, classifier.NewSimulated(rand.NewPCG(3, 4)))

	result, err := remote.Classify(context.Background(), photo)
	require.NoError(t, err)
	assert.True(t, classifier.IsWasteType(result.Type))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRemote_NoImage(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("remote service must not be called")
	}, nil)

	_, err := remote.Classify(context.Background(), classifier.Image{})
	assert.ErrorIs(t, err, classifier.ErrNoImage)
}
