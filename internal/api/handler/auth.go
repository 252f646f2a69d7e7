package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/api/models"
	"github.com/ecosphere/ecosphere/internal/api/response"
	"github.com/ecosphere/ecosphere/internal/auth"
	"github.com/ecosphere/ecosphere/internal/user"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *auth.Service
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /v1/auth/register - create a password account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", models.FieldErrorsFromAuth(errs))
		return
	}

	tokenResp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			response.Conflict(w, r, "email already registered")
		case errors.Is(err, auth.ErrWeakPassword):
			response.BadRequest(w, r, err.Error(), nil)
		case errors.Is(err, auth.ErrInvalidRequest):
			response.BadRequest(w, r, err.Error(), nil)
		default:
			internalError(w, r, h.logger, err, "registration failed")
		}
		return
	}

	response.Created(w, r, "/v1/me", models.NewTokenResponse(tokenResp))
}

// Login handles POST /v1/auth/login - email and password sign-in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", models.FieldErrorsFromAuth(errs))
		return
	}

	tokenResp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Unauthorized(w, r, "invalid email or password")
			return
		}
		internalError(w, r, h.logger, err, "login failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewTokenResponse(tokenResp))
}

// Google handles POST /v1/auth/google - Google sign-in, creating the account on first use.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req auth.GoogleLoginRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	if errs := req.Validate(h.authService.GoogleVerified()); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", models.FieldErrorsFromAuth(errs))
		return
	}

	tokenResp, err := h.authService.LoginWithGoogle(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidIDToken),
			errors.Is(err, auth.ErrInvalidIssuer),
			errors.Is(err, auth.ErrInvalidAudience),
			errors.Is(err, auth.ErrEmailNotVerified):
			response.Unauthorized(w, r, "invalid Google identity token")
		case errors.Is(err, auth.ErrIDTokenExpired):
			response.Unauthorized(w, r, "Google identity token has expired")
		case errors.Is(err, auth.ErrKeyNotFound),
			errors.Is(err, auth.ErrFetchingGoogleKeys):
			response.ServiceUnavailable(w, r, "unable to verify Google token at this time")
		case errors.Is(err, auth.ErrInvalidRequest):
			response.BadRequest(w, r, err.Error(), nil)
		default:
			internalError(w, r, h.logger, err, "authentication failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewTokenResponse(tokenResp))
}

// RefreshToken handles POST /v1/auth/refresh - rotate the refresh token.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req auth.RefreshTokenRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", models.FieldErrorsFromAuth(errs))
		return
	}

	tokenResp, err := h.authService.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRefreshToken):
			response.Unauthorized(w, r, "invalid refresh token")
		case errors.Is(err, auth.ErrRefreshTokenExpired):
			response.Unauthorized(w, r, "refresh token has expired")
		case errors.Is(err, user.ErrUserNotFound):
			response.Unauthorized(w, r, "user not found")
		default:
			internalError(w, r, h.logger, err, "token refresh failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewTokenResponse(tokenResp))
}

// Logout handles POST /v1/auth/logout - revoke current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req auth.RefreshTokenRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	if req.RefreshToken == "" {
		response.BadRequest(w, r, "refreshToken is required", nil)
		return
	}

	if err := h.authService.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		internalError(w, r, h.logger, err, "logout failed")
		return
	}

	response.NoContent(w, r)
}

// LogoutAll handles POST /v1/auth/logout-all - revoke all sessions for the user.
// This endpoint requires authentication.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	if err := h.authService.RevokeAllTokens(r.Context(), userID); err != nil {
		internalError(w, r, h.logger, err, "logout failed")
		return
	}

	response.NoContent(w, r)
}
