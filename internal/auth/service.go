package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/user"
)

// GoogleSignupBonus is credited to accounts created through Google sign-in.
const GoogleSignupBonus = 100

// Predefined service errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = user.ErrEmailTaken
	ErrInvalidRequest     = errors.New("invalid request")
)

// Service provides authentication operations.
type Service struct {
	jwtService     *JWTService
	googleVerifier *GoogleVerifier
	users          user.Repository
	refreshRepo    RefreshTokenRepository
	ranking        user.RankingInvalidator
	logger         zerolog.Logger
	now            func() time.Time
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService *JWTService

	// GoogleVerifier verifies Google ID tokens. When nil, Google sign-in
	// trusts the profile fields sent by the client.
	GoogleVerifier *GoogleVerifier

	Users       user.Repository
	RefreshRepo RefreshTokenRepository

	// Ranking is told about every new account so a cached ranking picks it up.
	Ranking user.RankingInvalidator

	Logger zerolog.Logger
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	refreshRepo := cfg.RefreshRepo
	if refreshRepo == nil {
		refreshRepo = NewInMemoryRefreshTokenRepository()
	}

	return &Service{
		jwtService:     cfg.JWTService,
		googleVerifier: cfg.GoogleVerifier,
		users:          cfg.Users,
		refreshRepo:    refreshRepo,
		ranking:        cfg.Ranking,
		logger:         cfg.Logger,
		now:            time.Now,
	}
}

// GoogleVerified reports whether Google sign-in requires a verified ID token.
func (s *Service) GoogleVerified() bool {
	return s.googleVerifier != nil
}

// Register creates a password account and returns API tokens.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		if errs[0].Code == "WEAK_PASSWORD" {
			return nil, ErrWeakPassword
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errs[0].Message)
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("check account existence: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := user.New(strings.TrimSpace(req.Name), req.Email, user.ProviderLocal)
	u.PasswordHash = hash
	now := s.now()
	u.LastLoginAt = &now

	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.invalidateRanking(ctx)

	s.logger.Info().Str("user_id", u.ID).Msg("user registered")

	resp, err := s.generateTokens(ctx, u)
	if err != nil {
		return nil, err
	}
	resp.Created = true
	return resp, nil
}

// Login authenticates with email and password.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if !CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	u.LastLoginAt = &now
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}

	return s.generateTokens(ctx, u)
}

func (s *Service) invalidateRanking(ctx context.Context) {
	if s.ranking != nil {
		s.ranking.InvalidateRanking(ctx)
	}
}

// LoginWithGoogle signs in a Google user, creating the account with the
// signup bonus on first sight of the email.
func (s *Service) LoginWithGoogle(ctx context.Context, req *GoogleLoginRequest) (*TokenResponse, error) {
	if errs := req.Validate(s.GoogleVerified()); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errs[0].Message)
	}

	identity := &GoogleIdentity{
		Subject: req.ID,
		Email:   req.Email,
		Name:    strings.TrimSpace(req.Name),
		Picture: req.Picture,
	}
	if s.googleVerifier != nil {
		verified, err := s.googleVerifier.Verify(ctx, req.IDToken)
		if err != nil {
			return nil, fmt.Errorf("verifying Google token: %w", err)
		}
		identity = verified
	}

	now := s.now()
	u, err := s.users.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		u.ProviderID = identity.Subject
		u.Provider = user.ProviderGoogle
		if identity.Picture != "" {
			u.Picture = identity.Picture
		}
		u.LastLoginAt = &now
		if err := s.users.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("updating user: %w", err)
		}
		return s.generateTokens(ctx, u)

	case errors.Is(err, user.ErrUserNotFound):
		name := identity.Name
		if name == "" {
			name = identity.Email
		}
		u = user.New(name, identity.Email, user.ProviderGoogle)
		u.ProviderID = identity.Subject
		u.Picture = identity.Picture
		u.EcoPoints = GoogleSignupBonus
		u.Level = progression.LevelName(u.EcoPoints)
		u.LastLoginAt = &now

		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("creating user: %w", err)
		}
		s.invalidateRanking(ctx)
		s.logger.Info().Str("user_id", u.ID).Int("bonus", GoogleSignupBonus).Msg("google user created")

		resp, err := s.generateTokens(ctx, u)
		if err != nil {
			return nil, err
		}
		resp.Created = true
		return resp, nil

	default:
		return nil, fmt.Errorf("finding user: %w", err)
	}
}

// RefreshAccessToken rotates a refresh token and issues a new token pair.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshTokenStr string) (*TokenResponse, error) {
	tokenHash := HashRefreshToken(refreshTokenStr)

	refreshToken, err := s.refreshRepo.FindByHash(ctx, tokenHash)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if refreshToken.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}
	if !refreshToken.Active(s.now()) {
		return nil, ErrRefreshTokenExpired
	}

	u, err := s.users.Get(ctx, refreshToken.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.refreshRepo.Revoke(ctx, tokenHash); err != nil {
		return nil, fmt.Errorf("revoking old refresh token: %w", err)
	}

	return s.generateTokens(ctx, u)
}

// ValidateAccessToken validates an access token and returns the user ID.
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// RevokeRefreshToken revokes a specific refresh token.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshTokenStr string) error {
	return s.refreshRepo.Revoke(ctx, HashRefreshToken(refreshTokenStr))
}

// RevokeAllTokens revokes all refresh tokens for a user (logout everywhere).
func (s *Service) RevokeAllTokens(ctx context.Context, userID string) error {
	return s.refreshRepo.RevokeAllForUser(ctx, userID)
}

// generateTokens generates both access and refresh tokens for a user.
func (s *Service) generateTokens(ctx context.Context, u *user.User) (*TokenResponse, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	now := s.now()
	refreshToken := &RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: HashRefreshToken(refreshTokenStr),
		UserID:    u.ID,
		ExpiresAt: now.Add(RefreshTokenExpiry),
		CreatedAt: now,
	}

	if err := s.refreshRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(expiresAt.Sub(now).Seconds()),
		RefreshToken: refreshTokenStr,
		User:         u,
	}, nil
}
