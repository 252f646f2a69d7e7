package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosphere/ecosphere/internal/api/middleware"
	"github.com/ecosphere/ecosphere/internal/api/models"
)

// hit sends one request from addr, authenticated as userID when set.
func hit(handler http.Handler, addr, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/gamification/actions", http.NoBody)
	req.RemoteAddr = addr
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 3,
		WindowLength: time.Minute,
	})(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "203.0.113.10:5000", "").Code, "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "203.0.113.10:5001", "").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "203.0.113.11:5000", "").Code)
}

func TestRateLimitByUser(t *testing.T) {
	handler := middleware.RateLimitByUser(middleware.RateLimitConfig{
		RequestLimit: 2,
		WindowLength: time.Minute,
	})(okHandler())

	const sharedNAT = "198.51.100.1:443"

	assert.Equal(t, http.StatusOK, hit(handler, sharedNAT, "usr_ana").Code)
	assert.Equal(t, http.StatusOK, hit(handler, sharedNAT, "usr_ana").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, sharedNAT, "usr_ana").Code)

	// Users behind the same address keep separate budgets
	assert.Equal(t, http.StatusOK, hit(handler, sharedNAT, "usr_bruno").Code)

	// Anonymous requests fall back to the client address
	assert.Equal(t, http.StatusOK, hit(handler, sharedNAT, "").Code)
	assert.Equal(t, http.StatusOK, hit(handler, sharedNAT, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, sharedNAT, "").Code)
}

func TestRateLimitExceeded_Problem(t *testing.T) {
	handler := middleware.RequestID(middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 1,
		WindowLength: 90 * time.Second,
	})(okHandler()))

	hit(handler, "198.51.100.7:4242", "")
	rec := hit(handler, "198.51.100.7:4242", "")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeTooManyRequests, problem.Type)
	assert.Equal(t, "/v1/gamification/actions", problem.Instance)
	assert.Equal(t, rec.Header().Get("X-Request-Id"), problem.TraceID)
}

func TestRateLimitExceeded_RoundsRetryAfterUp(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 1,
		WindowLength: 1500 * time.Millisecond,
	})(okHandler())

	hit(handler, "192.0.2.5:1", "")
	rec := hit(handler, "192.0.2.5:1", "")

	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	tests := []struct {
		name  string
		cfg   middleware.RateLimitConfig
		limit int
	}{
		{"auth", middleware.AuthRateLimit, 10},
		{"action", middleware.ActionRateLimit, 30},
		{"standard", middleware.StandardRateLimit, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.limit, tt.cfg.RequestLimit)
			assert.Equal(t, time.Minute, tt.cfg.WindowLength)
		})
	}
}
