// Package api provides the HTTP API for EcoSphere.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/api/handler"
	"github.com/ecosphere/ecosphere/internal/api/middleware"
	"github.com/ecosphere/ecosphere/internal/auth"
	"github.com/ecosphere/ecosphere/internal/classifier"
	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/provider/resilience"
	"github.com/ecosphere/ecosphere/internal/rewards"
	"github.com/ecosphere/ecosphere/internal/user"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	AuthService *auth.Service
	UserService *user.Service
	Engine      *progression.Engine
	Rewards     *rewards.Service
	Classifier  classifier.Classifier

	// Subsystems are probed by the readiness and status endpoints.
	Subsystems []handler.Subsystem

	// Registry reports upstream provider health. Optional.
	Registry *resilience.Registry

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "ecosphere-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON) // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Subsystems, cfg.Registry)
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	meHandler := handler.NewMeHandler(cfg.UserService, cfg.Logger)
	gamificationHandler := handler.NewGamificationHandler(cfg.Engine, cfg.Logger)
	rewardsHandler := handler.NewRewardsHandler(cfg.Rewards, cfg.Logger)
	wasteHandler := handler.NewWasteHandler(cfg.Classifier, cfg.Engine, cfg.UserService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)

	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)       // 10 req/min
	actionRateLimit := middleware.RateLimitByUser(middleware.ActionRateLimit) // 30 req/min
	userRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit) // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.Google)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Authenticated endpoints - user-based rate limiting
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(userRateLimit)

			r.Route("/me", func(r chi.Router) {
				r.Use(middleware.RequireJSON)
				r.Get("/", meHandler.GetMe)
				r.Put("/", meHandler.UpdateMe)
			})

			r.Route("/gamification", func(r chi.Router) {
				r.Get("/profile", gamificationHandler.GetProfile)
				r.With(actionRateLimit, middleware.RequireJSON).Post("/actions", gamificationHandler.RecordAction)
				r.Get("/ranking", gamificationHandler.GetRanking)
				r.Get("/badges", gamificationHandler.GetBadges)
			})

			r.Route("/rewards", func(r chi.Router) {
				r.Get("/", rewardsHandler.ListRewards)
				r.With(actionRateLimit).Post("/{rewardId}/redeem", rewardsHandler.Redeem)
			})

			r.Route("/waste", func(r chi.Router) {
				r.With(actionRateLimit).Post("/classify", wasteHandler.Classify)
				r.Get("/history", wasteHandler.History)
				r.With(actionRateLimit, middleware.RequireJSON).Post("/disposals", wasteHandler.RecordDisposal)
			})
		})
	})

	return r
}
