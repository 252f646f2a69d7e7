package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Service errors.
var (
	ErrInvalidName  = errors.New("name must not be empty")
	ErrInvalidEmail = errors.New("invalid email address")
)

// UpdateInput holds the profile fields a user may change.
// Nil fields are left untouched.
type UpdateInput struct {
	Name  *string
	Email *string
}

// RankingInvalidator drops cached ranking data after a write that changes
// what the ranking shows (a new user, a renamed user).
type RankingInvalidator interface {
	InvalidateRanking(ctx context.Context)
}

// Service provides user profile operations.
type Service struct {
	repo    Repository
	ranking RankingInvalidator
}

// NewService creates a new user service. ranking may be nil when no ranking
// cache is in use.
func NewService(repo Repository, ranking RankingInvalidator) *Service {
	return &Service{repo: repo, ranking: ranking}
}

// GetMe retrieves the user's own record.
func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateMe updates the user's name and email.
func (s *Service) UpdateMe(ctx context.Context, userID string, input UpdateInput) (*User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		u.Name = name
	}

	if input.Email != nil {
		email, err := ValidateEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		u.Email = email
	}

	u.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if s.ranking != nil {
		s.ranking.InvalidateRanking(ctx)
	}

	return u, nil
}

// ValidateEmail checks the address syntax and returns it normalized.
func ValidateEmail(email string) (string, error) {
	normalized := NormalizeEmail(email)
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}
