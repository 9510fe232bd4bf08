// Package collaborations provides the collaboration pipeline bounded context module.
package collaborations

import (
	"time"

	"collab_pipeline_backend/internal/collaborations/handler"
	"collab_pipeline_backend/internal/collaborations/ledger"
	"collab_pipeline_backend/internal/collaborations/management"
	"collab_pipeline_backend/internal/collaborations/overdue"
	"collab_pipeline_backend/internal/collaborations/pipeline"
	"collab_pipeline_backend/internal/collaborations/repository"
	"collab_pipeline_backend/internal/collaborations/results"
	"collab_pipeline_backend/internal/collaborations/stages"
	"collab_pipeline_backend/internal/events"
	apphttp "collab_pipeline_backend/internal/http"
	"collab_pipeline_backend/platform/logger"
	"collab_pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the collaborations bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	services handler.Services
}

// NewModule wires the collaboration services over a shared repository.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger, reminderWindow time.Duration) *Module {
	repo := repository.New(pool)

	services := handler.Services{
		Management: management.New(repo, eventBus),
		Stages:     stages.New(repo, eventBus),
		Ledger:     ledger.New(repo, eventBus),
		Results:    results.New(repo, eventBus),
		Overdue:    overdue.New(repo, eventBus, log, reminderWindow),
		Pipeline:   pipeline.New(repo),
	}

	return &Module{
		handler:  handler.New(services, repo, val),
		services: services,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "collaborations"
}

// OverdueService returns the reconciler for the scheduler and notification checks.
func (m *Module) OverdueService() *overdue.Service {
	return m.services.Overdue
}

// RegisterRoutes mounts collaboration routes on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
