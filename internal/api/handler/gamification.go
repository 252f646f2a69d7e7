package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/api/models"
	"github.com/ecosphere/ecosphere/internal/api/response"
	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/user"
)

// GamificationHandler handles progression endpoints.
type GamificationHandler struct {
	engine *progression.Engine
	logger zerolog.Logger
}

// NewGamificationHandler creates a new GamificationHandler.
func NewGamificationHandler(engine *progression.Engine, logger zerolog.Logger) *GamificationHandler {
	return &GamificationHandler{engine: engine, logger: logger}
}

// GetProfile handles GET /v1/gamification/profile.
func (h *GamificationHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.Summary(r.Context(), GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err, "failed to load progression")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewGamificationProfile(summary))
}

// RecordAction handles POST /v1/gamification/actions.
func (h *GamificationHandler) RecordAction(w http.ResponseWriter, r *http.Request) {
	var input models.ActionInput
	if !decodeJSON(w, r, &input, false) {
		return
	}

	if input.Type == "" {
		response.BadRequest(w, r, "validation error", []models.FieldError{
			{Field: "type", Message: "type is required", Code: "REQUIRED"},
		})
		return
	}

	action, err := progression.ParseAction(input.Type, input.Points, input.Data)
	if err != nil {
		response.BadRequest(w, r, "validation error", []models.FieldError{
			{Field: "type", Message: err.Error(), Code: "INVALID"},
		})
		return
	}

	outcome, err := h.engine.Record(r.Context(), GetUserID(r.Context()), action)
	if err != nil {
		h.writeError(w, r, err, "failed to record action")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewActionResult(outcome))
}

// GetRanking handles GET /v1/gamification/ranking?limit=N.
func (h *GamificationHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "limit", Message: "limit must be an integer", Code: "INVALID"},
			})
			return
		}
		limit = n
	}
	limit = progression.ClampLimit(limit)

	entries, err := h.engine.Ranking(r.Context(), GetUserID(r.Context()), limit)
	if err != nil {
		h.writeError(w, r, err, "failed to load ranking")
		return
	}

	response.JSON(w, r, http.StatusOK, models.Ranking{Entries: entries, Limit: limit})
}

// GetBadges handles GET /v1/gamification/badges.
func (h *GamificationHandler) GetBadges(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.engine.Badges(r.Context(), GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err, "failed to load badges")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewBadgeStatuses(statuses))
}

func (h *GamificationHandler) writeError(w http.ResponseWriter, r *http.Request, err error, detail string) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, r, "user not found")
	case errors.Is(err, progression.ErrInvalidAction):
		response.BadRequest(w, r, err.Error(), nil)
	default:
		internalError(w, r, h.logger, err, detail)
	}
}
