// Package auth provides authentication services for EcoSphere.
package auth

import (
	"strings"

	"github.com/ecosphere/ecosphere/internal/user"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func required(field string) FieldError {
	return FieldError{Field: field, Message: field + " is required", Code: "REQUIRED"}
}

// RegisterRequest is the request body for password registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the registration request.
func (r *RegisterRequest) Validate() []FieldError {
	var errors []FieldError

	if strings.TrimSpace(r.Name) == "" {
		errors = append(errors, required("name"))
	}
	if strings.TrimSpace(r.Email) == "" {
		errors = append(errors, required("email"))
	} else if _, err := user.ValidateEmail(r.Email); err != nil {
		errors = append(errors, FieldError{Field: "email", Message: err.Error(), Code: "INVALID"})
	}
	if r.Password == "" {
		errors = append(errors, required("password"))
	} else if err := ValidatePassword(r.Password); err != nil {
		errors = append(errors, FieldError{Field: "password", Message: err.Error(), Code: "WEAK_PASSWORD"})
	}

	return errors
}

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the login request.
func (r *LoginRequest) Validate() []FieldError {
	var errors []FieldError

	if strings.TrimSpace(r.Email) == "" {
		errors = append(errors, required("email"))
	}
	if r.Password == "" {
		errors = append(errors, required("password"))
	}

	return errors
}

// GoogleLoginRequest is the request body for Google sign-in.
//
// When a Google verifier is configured only IDToken is read and the profile
// comes from its claims. Otherwise the profile fields are taken as sent.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken,omitempty"`

	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Validate validates the request for the given verification mode.
func (r *GoogleLoginRequest) Validate(verified bool) []FieldError {
	var errors []FieldError

	if verified {
		if r.IDToken == "" {
			errors = append(errors, required("idToken"))
		}
		return errors
	}

	if r.ID == "" {
		errors = append(errors, required("id"))
	}
	if strings.TrimSpace(r.Name) == "" {
		errors = append(errors, required("name"))
	}
	if strings.TrimSpace(r.Email) == "" {
		errors = append(errors, required("email"))
	}

	return errors
}

// RefreshTokenRequest represents the request to refresh an access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate validates the refresh token request.
func (r *RefreshTokenRequest) Validate() []FieldError {
	var errors []FieldError

	if r.RefreshToken == "" {
		errors = append(errors, required("refreshToken"))
	}

	return errors
}

// TokenResponse is the result of a successful authentication.
type TokenResponse struct {
	// AccessToken is the JWT access token for API authentication.
	AccessToken string

	// TokenType is always "Bearer".
	TokenType string

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64

	// RefreshToken is the opaque token used to obtain new access tokens.
	RefreshToken string

	// User is the authenticated user.
	User *user.User

	// Created is true when this call created the account.
	Created bool
}
