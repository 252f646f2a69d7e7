package models

import (
	"github.com/ecosphere/ecosphere/internal/auth"
	"github.com/ecosphere/ecosphere/internal/user"
)

// Me is the authenticated user's public profile. It never carries the password hash.
type Me struct {
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Picture     string     `json:"picture,omitempty"`
	Provider    string     `json:"provider"`
	EcoPoints   int        `json:"ecoPoints"`
	Level       string     `json:"level"`
	CreatedAt   Timestamp  `json:"createdAt"`
	LastLoginAt *Timestamp `json:"lastLoginAt,omitempty"`
}

// NewMe builds the public profile of u.
func NewMe(u *user.User) Me {
	return Me{
		UserID:      u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Picture:     u.Picture,
		Provider:    string(u.Provider),
		EcoPoints:   u.EcoPoints,
		Level:       u.Level,
		CreatedAt:   Timestamp(u.CreatedAt),
		LastLoginAt: TimestampPtr(u.LastLoginAt),
	}
}

// MeInput is the request body for updating the profile.
type MeInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// TokenResponse is returned by every sign-in endpoint.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
	RefreshToken string `json:"refreshToken"`
	User         Me     `json:"user"`
}

// NewTokenResponse converts an auth result to its wire form.
func NewTokenResponse(t *auth.TokenResponse) TokenResponse {
	return TokenResponse{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		RefreshToken: t.RefreshToken,
		User:         NewMe(t.User),
	}
}

// FieldErrorsFromAuth converts auth validation errors to problem field errors.
func FieldErrorsFromAuth(errs []auth.FieldError) []FieldError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]FieldError, len(errs))
	for i, e := range errs {
		out[i] = FieldError{Field: e.Field, Message: e.Message, Code: e.Code}
	}
	return out
}
