// Package notification delivers collaboration alerts to staff and brand owners and
// serves the in-app inbox.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collab_pipeline_backend/internal/email"
	"collab_pipeline_backend/internal/events"
	apphttp "collab_pipeline_backend/internal/http"
	"collab_pipeline_backend/internal/notification/handler"
	"collab_pipeline_backend/internal/notification/inapp"
	"collab_pipeline_backend/platform/config"
	"collab_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	KindOverdue          = "collaboration.overdue"
	KindDeadlineApproach = "collaboration.deadline_approaching"

	resourceTypeCollaboration = "collaboration"
	reminderDedupeWindow      = 24 * time.Hour
	defaultConcurrency        = 4
)

// RecipientReader resolves who hears about a collaboration.
type RecipientReader interface {
	Recipients(ctx context.Context, brandID, staffID uuid.UUID) ([]Recipient, error)
}

// Module handles collaboration events and exposes the inbox routes.
type Module struct {
	inApp      *inapp.Service
	recipients RecipientReader
	sender     email.Sender
	cfg        config.NotificationConfig
	log        *logger.Logger
	checks     handler.CheckRunner
}

// New creates the notification module. A nil sender disables the email copy.
func New(inApp *inapp.Service, recipients RecipientReader, sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		inApp:      inApp,
		recipients: recipients,
		sender:     sender,
		cfg:        cfg,
		log:        log,
	}
}

// SetCheckRunner wires the on-demand run-checks endpoint.
func (m *Module) SetCheckRunner(checks handler.CheckRunner) { m.checks = checks }

// InAppService exposes the inbox service.
func (m *Module) InAppService() *inapp.Service { return m.inApp }

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the inbox on the authenticated group and run-checks on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	h := handler.NewHTTPHandler(m.inApp, m.checks)
	h.RegisterRoutes(ctx.Protected.Group("/notifications"))
	h.RegisterAdminRoutes(ctx.Admin.Group("/notifications"))
}

// RegisterHandlers subscribes to collaboration alert events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.OverdueDetected{}.EventName(), m)
	bus.Subscribe(events.DeadlinesApproaching{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.OverdueDetected:
		return m.handleOverdueDetected(ctx, e)
	case events.DeadlinesApproaching:
		return m.handleDeadlinesApproaching(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleOverdueDetected(ctx context.Context, e events.OverdueDetected) error {
	return m.fanOut(ctx, e.Collaborations, alert{
		kind:     KindOverdue,
		category: inapp.CategoryWarning,
		title:    "Collaboration overdue",
		content: func(row events.OverdueCollaboration) string {
			return fmt.Sprintf("Collaboration with %s passed its deadline of %s while in stage %s.",
				row.InfluencerNickname, row.Deadline.UTC().Format(time.DateOnly), row.Stage)
		},
		sendEmail: m.sender.SendOverdueEmail,
	})
}

func (m *Module) handleDeadlinesApproaching(ctx context.Context, e events.DeadlinesApproaching) error {
	return m.fanOut(ctx, e.Collaborations, alert{
		kind:     KindDeadlineApproach,
		category: inapp.CategoryInfo,
		title:    "Deadline approaching",
		content: func(row events.OverdueCollaboration) string {
			return fmt.Sprintf("Collaboration with %s is due %s (stage %s).",
				row.InfluencerNickname, row.Deadline.UTC().Format("2006-01-02 15:04 UTC"), row.Stage)
		},
		dedupe:    reminderDedupeWindow,
		sendEmail: m.sender.SendDeadlineReminderEmail,
	})
}

type alert struct {
	kind      string
	category  string
	title     string
	content   func(events.OverdueCollaboration) string
	dedupe    time.Duration
	sendEmail func(ctx context.Context, toEmail, recipientName, linkURL string, items []email.DigestItem) error
}

type ownerKey struct {
	brandID uuid.UUID
	staffID uuid.UUID
}

// fanOut groups rows by owning staff member and delivers each group concurrently.
// Delivery failures are logged and never returned.
func (m *Module) fanOut(ctx context.Context, rows []events.OverdueCollaboration, a alert) error {
	groups := make(map[ownerKey][]events.OverdueCollaboration)
	order := make([]ownerKey, 0)
	for _, row := range rows {
		key := ownerKey{brandID: row.TenantID, staffID: row.BusinessStaffID}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	limit := m.cfg.GetNotificationConcurrency()
	if limit <= 0 {
		limit = defaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, key := range order {
		key, group := key, groups[key]
		g.Go(func() error {
			m.deliverGroup(gctx, key, group, a)
			return nil
		})
	}
	return g.Wait()
}

func (m *Module) deliverGroup(ctx context.Context, key ownerKey, rows []events.OverdueCollaboration, a alert) {
	recipients, err := m.recipients.Recipients(ctx, key.brandID, key.staffID)
	if err != nil {
		m.log.NotificationFailed("recipients", err, "kind", a.kind, "brandId", key.brandID)
		return
	}

	for _, rcpt := range recipients {
		digest := make([]email.DigestItem, 0, len(rows))
		for _, row := range rows {
			resourceID := row.CollaborationID
			sent, err := m.inApp.Send(ctx, inapp.SendParams{
				BrandID:      row.TenantID,
				UserID:       rcpt.UserID,
				Kind:         a.kind,
				Title:        a.title,
				Content:      a.content(row),
				ResourceID:   &resourceID,
				ResourceType: resourceTypeCollaboration,
				Category:     a.category,
				DedupeWindow: a.dedupe,
			})
			if err != nil {
				m.log.NotificationFailed("in_app", err, "kind", a.kind, "userId", rcpt.UserID, "collaborationId", row.CollaborationID)
				continue
			}
			if !sent {
				continue
			}
			digest = append(digest, email.DigestItem{
				InfluencerNickname: row.InfluencerNickname,
				Stage:              row.Stage,
				Deadline:           row.Deadline,
			})
		}

		if len(digest) == 0 || rcpt.Email == "" {
			continue
		}
		if err := a.sendEmail(ctx, rcpt.Email, rcpt.Name, m.pipelineURL(), digest); err != nil {
			m.log.NotificationFailed("email", err, "kind", a.kind, "userId", rcpt.UserID)
		}
	}
}

func (m *Module) pipelineURL() string {
	return strings.TrimRight(m.cfg.GetAppBaseURL(), "/") + "/pipeline"
}

// Compile-time checks
var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)
