// Package main provides the entrypoint for the EcoSphere API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/api"
	"github.com/ecosphere/ecosphere/internal/api/middleware"
	"github.com/ecosphere/ecosphere/internal/auth"
	"github.com/ecosphere/ecosphere/internal/bootstrap"
	"github.com/ecosphere/ecosphere/internal/classifier"
	"github.com/ecosphere/ecosphere/internal/config"
	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/provider/resilience"
	"github.com/ecosphere/ecosphere/internal/rewards"
	"github.com/ecosphere/ecosphere/internal/telemetry"
	"github.com/ecosphere/ecosphere/internal/user"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "ecosphere-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting EcoSphere API")

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.UsesDefaultSigningKey() {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}
	engineMetrics, err := progression.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize progression metrics")
	}
	classifierMetrics, err := classifier.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize classifier metrics")
	}

	backends, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open user store")
	}
	defer backends.Close(context.Background())

	registry := resilience.NewRegistry()

	engine := progression.NewEngine(progression.EngineConfig{
		Store:                      backends.Users,
		Logger:                     log,
		Cache:                      backends.RankingCache(),
		RankingTTL:                 cfg.RankingCacheTTL,
		EvaluateExtendedMilestones: cfg.ExtendedMilestones,
		Metrics:                    engineMetrics,
	})
	log.Info().Msg("progression engine initialized")

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
	})

	// Google sign-in trusts client profile fields unless a client id is configured
	var googleVerifier *auth.GoogleVerifier
	if cfg.GoogleClientID != "" {
		googleVerifier = auth.NewGoogleVerifier(auth.GoogleConfig{
			ClientID: cfg.GoogleClientID,
			Registry: registry,
		})
		log.Info().Msg("Google ID token verification enabled")
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID not set - Google sign-in accepts unverified profiles")
	}

	authService := auth.NewService(auth.ServiceConfig{
		JWTService:     jwtService,
		GoogleVerifier: googleVerifier,
		Users:          backends.Users,
		RefreshRepo:    backends.Refresh,
		Ranking:        engine,
		Logger:         log,
	})
	log.Info().Msg("auth service initialized")

	var wasteClassifier classifier.Classifier = classifier.NewSimulated(nil)
	if cfg.ClassifierURL != "" {
		wasteClassifier = classifier.NewRemote(classifier.RemoteConfig{
			BaseURL:  cfg.ClassifierURL,
			Registry: registry,
			Fallback: wasteClassifier,
			Logger:   log,
			Metrics:  classifierMetrics,
		})
		log.Info().Str("url", cfg.ClassifierURL).Msg("remote waste classifier configured")
	} else {
		log.Warn().Msg("CLASSIFIER_URL not set - using simulated classifier")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		AuthService: authService,
		UserService: user.NewService(backends.Users, engine),
		Engine:      engine,
		Rewards:     rewards.NewService(engine),
		Classifier:  wasteClassifier,
		Subsystems:  backends.Subsystems(),
		Registry:    registry,
		RequireTLS:  cfg.RequireTLS,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
