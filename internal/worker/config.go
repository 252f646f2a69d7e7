// Package worker runs EcoSphere background processing: asynchronous action
// intake from Pub/Sub and periodic maintenance.
package worker

import (
	"time"
)

// Job types carried in the "job_type" message attribute.
// Messages without the attribute are actions.
const (
	JobAction      = "action"
	JobMaintenance = "maintenance"
)

// MaintenanceConfig holds configuration for the maintenance job.
type MaintenanceConfig struct {
	// Concurrency is the number of tasks run in parallel.
	// Default: 2
	Concurrency int

	// Timeout bounds each task.
	// Default: 30 seconds
	Timeout time.Duration

	// TokenRetention keeps expired refresh tokens this long before deletion.
	// Default: 24 hours
	TokenRetention time.Duration

	// Interval between scheduled runs.
	// Default: 1 hour
	Interval time.Duration
}

// DefaultMaintenanceConfig returns the default maintenance configuration.
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		Concurrency:    2,
		Timeout:        30 * time.Second,
		TokenRetention: 24 * time.Hour,
		Interval:       time.Hour,
	}
}

func (c MaintenanceConfig) withDefaults() MaintenanceConfig {
	d := DefaultMaintenanceConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.TokenRetention <= 0 {
		c.TokenRetention = d.TokenRetention
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	return c
}
