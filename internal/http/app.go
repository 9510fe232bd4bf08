// Package http assembles the API: the App built by cmd/api and the Module contract each
// bounded context implements to mount its routes.
package http

import (
	"context"

	"collab_pipeline_backend/internal/events"
	"collab_pipeline_backend/platform/config"
	"collab_pipeline_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router reads: listen/CORS/rate-limit
// settings and the JWT secret for AuthRequired.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs /api/ready.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is everything the router needs. cmd/api fills it after migrations have run.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is the database pool; readiness fails while it cannot be pinged.
	Health HealthChecker
	// EventBus carries collaboration events to the notification module.
	EventBus events.Bus
	// Modules are mounted in order: collaborations, then notifications.
	Modules []Module
}
