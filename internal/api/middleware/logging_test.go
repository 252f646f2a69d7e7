package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosphere/ecosphere/internal/api/middleware"
)

// logLine decodes the single JSON line written to buf.
func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_RequestFields(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ecoPoints":120}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/waste/disposals", http.NoBody)
	req.Header.Set("User-Agent", "ecosphere-android/3.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := logLine(t, &buf)
	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/v1/waste/disposals", entry["path"])
	assert.Equal(t, "/v1/waste/disposals", entry["route"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(len(`{"ecoPoints":120}`)), entry["bytes"])
	assert.Equal(t, "ecosphere-android/3.1", entry["user_agent"])
	assert.Contains(t, entry, "duration")
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusConflict, "warn"},
		{http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			handler := middleware.Logger(zerolog.New(&buf))(statusHandler(tt.status))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/rewards", http.NoBody))

			entry := logLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.NotContains(t, entry, "user_id")
		})
	}
}

func TestLogger_ImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/gamification/badges", http.NoBody))

	assert.Equal(t, float64(http.StatusOK), logLine(t, &buf)["status"])
}

func TestLogger_CorrelationIDs(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	handler := middleware.RequestID(middleware.Tracing("ecosphere-api")(
		middleware.Logger(zerolog.New(&buf))(statusHandler(http.StatusOK)),
	))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", http.NoBody)
	req.Header.Set("X-Request-Id", "req_corr1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := logLine(t, &buf)
	assert.Equal(t, "req_corr1", entry["request_id"])
	assert.Len(t, entry["trace_id"], 32)
	assert.Len(t, entry["span_id"], 16)
}

func TestLogger_UntracedRequestHasEmptyTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.Logger(zerolog.New(&buf))(statusHandler(http.StatusOK))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody))

	entry := logLine(t, &buf)
	assert.Equal(t, "", entry["trace_id"])
	assert.Equal(t, "", entry["span_id"])
}

func TestLogger_RouteAndUserFromInnerMiddleware(t *testing.T) {
	var buf bytes.Buffer

	r := chi.NewRouter()
	r.Use(middleware.Logger(zerolog.New(&buf)))
	r.With(middleware.Auth(stubValidator{userID: "usr_77"})).
		Post("/v1/rewards/{rewardId}/redeem", statusHandler(http.StatusOK).ServeHTTP)

	req := httptest.NewRequest(http.MethodPost, "/v1/rewards/3/redeem", http.NoBody)
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := logLine(t, &buf)
	assert.Equal(t, "/v1/rewards/{rewardId}/redeem", entry["route"])
	assert.Equal(t, "/v1/rewards/3/redeem", entry["path"])
	assert.Equal(t, "usr_77", entry["user_id"])
}
