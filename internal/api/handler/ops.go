// Package handler provides HTTP handlers for the EcoSphere API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/ecosphere/ecosphere/internal/api/models"
	"github.com/ecosphere/ecosphere/internal/api/response"
	"github.com/ecosphere/ecosphere/internal/provider/resilience"
)

// Pinger checks that a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Subsystem is a named dependency checked by the readiness and status endpoints.
type Subsystem struct {
	Name   string
	Pinger Pinger

	// Optional subsystems degrade the status instead of failing readiness.
	Optional bool
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version    string
	buildTime  string
	subsystems []Subsystem
	registry   *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, subsystems []Subsystem, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:    version,
		buildTime:  buildTime,
		subsystems: subsystems,
		registry:   registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - fails when a required subsystem is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	failed := map[string]any{}
	for _, s := range h.subsystems {
		if s.Optional {
			continue
		}
		if err := s.Pinger.Ping(ctx); err != nil {
			failed[s.Name] = err.Error()
		}
	}

	if len(failed) > 0 {
		health.Status = models.HealthStatusFail
		health.Details = failed
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Version:    h.version,
		Time:       models.Timestamp(time.Now()),
		Subsystems: make([]models.SubsystemStatus, 0, len(h.subsystems)),
		Providers:  []models.ProviderStatus{},
	}

	for _, s := range h.subsystems {
		sub := models.SubsystemStatus{Name: s.Name, Status: models.HealthStatusOK, Optional: s.Optional}
		start := time.Now()
		err := s.Pinger.Ping(ctx)
		sub.LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			detail := err.Error()
			sub.Detail = &detail
			if s.Optional {
				sub.Status = models.HealthStatusDegraded
				status.Status = worse(status.Status, models.HealthStatusDegraded)
			} else {
				sub.Status = models.HealthStatusFail
				status.Status = models.HealthStatusFail
			}
		}
		status.Subsystems = append(status.Subsystems, sub)
	}

	if h.registry != nil {
		for _, p := range h.registry.Snapshot() {
			provider := providerStatus(p)
			status.Status = worse(status.Status, provider.Status)
			status.Providers = append(status.Providers, provider)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(h resilience.Health) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:      h.Name,
		Status:        models.HealthStatusOK,
		CircuitState:  h.CircuitState.String(),
		LastSuccessAt: models.TimestampPtr(h.LastSuccessAt),
		LastFailureAt: models.TimestampPtr(h.LastFailureAt),
	}
	if h.LastError != "" {
		msg := h.LastError
		ps.Message = &msg
	}

	switch h.CircuitState {
	case gobreaker.StateOpen:
		ps.Status = models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		ps.Status = models.HealthStatusDegraded
	}
	return ps
}

// worse folds candidate into current. Non-OK candidates degrade but never fail the service.
func worse(current, candidate models.HealthStatus) models.HealthStatus {
	if current == models.HealthStatusFail {
		return current
	}
	if candidate != models.HealthStatusOK {
		return models.HealthStatusDegraded
	}
	return current
}
