// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"devis_backend/internal/events"
	"devis_backend/platform/config"
	"devis_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// main.go populates it and hands it to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health backs /api/ready (DB ping).
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
