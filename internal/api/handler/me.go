package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/api/models"
	"github.com/ecosphere/ecosphere/internal/api/response"
	"github.com/ecosphere/ecosphere/internal/user"
)

// MeHandler handles user account endpoints.
type MeHandler struct {
	userService *user.Service
	logger      zerolog.Logger
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(userService *user.Service, logger zerolog.Logger) *MeHandler {
	return &MeHandler{userService: userService, logger: logger}
}

// GetMe handles GET /v1/me - get the current user's profile.
func (h *MeHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.userService.GetMe(r.Context(), GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, r, "user not found")
			return
		}
		internalError(w, r, h.logger, err, "failed to load profile")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewMe(u))
}

// UpdateMe handles PUT /v1/me - update name and email.
func (h *MeHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var input models.MeInput
	if !decodeJSON(w, r, &input, false) {
		return
	}

	u, err := h.userService.UpdateMe(r.Context(), GetUserID(r.Context()), user.UpdateInput{
		Name:  input.Name,
		Email: input.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidName):
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "name", Message: err.Error(), Code: "REQUIRED"},
			})
		case errors.Is(err, user.ErrInvalidEmail):
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "email", Message: err.Error(), Code: "INVALID"},
			})
		case errors.Is(err, user.ErrEmailTaken):
			response.Conflict(w, r, "email already registered")
		case errors.Is(err, user.ErrUserNotFound):
			response.NotFound(w, r, "user not found")
		default:
			internalError(w, r, h.logger, err, "failed to update profile")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewMe(u))
}
