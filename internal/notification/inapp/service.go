package inapp

import (
	"context"
	"time"

	"collab_pipeline_backend/platform/apperr"
	"collab_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	CategoryInfo    = "info"
	CategoryWarning = "warning"
	CategoryError   = "error"
)

// Store is the persistence the inbox needs.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	ExistsRecent(ctx context.Context, userID uuid.UUID, kind string, resourceID uuid.UUID, since time.Time) (bool, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Service struct {
	repo Store
	log  *logger.Logger
	now  func() time.Time
}

func NewService(repo Store, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// SetClock overrides the clock used for de-duplication windows.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type SendParams struct {
	BrandID      uuid.UUID
	UserID       uuid.UUID
	Kind         string
	Title        string
	Content      string
	ResourceID   *uuid.UUID
	ResourceType string
	Category     string // "info", "warning", "error"
	// DedupeWindow skips the send when the same user already got this kind for this resource within the window.
	DedupeWindow time.Duration
}

// Send persists the notification. It reports false when the send was skipped as a duplicate.
func (s *Service) Send(ctx context.Context, p SendParams) (bool, error) {
	if s == nil || s.repo == nil {
		return false, apperr.Internal("in-app notification service not configured")
	}

	if p.Category == "" {
		p.Category = CategoryInfo
	}

	if p.DedupeWindow > 0 && p.ResourceID != nil {
		exists, err := s.repo.ExistsRecent(ctx, p.UserID, p.Kind, *p.ResourceID, s.now().Add(-p.DedupeWindow))
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}

	var resourceType *string
	if p.ResourceType != "" {
		resourceType = &p.ResourceType
	}

	_, err := s.repo.Create(ctx, CreateParams{
		BrandID:      p.BrandID,
		UserID:       p.UserID,
		Kind:         p.Kind,
		Title:        p.Title,
		Content:      p.Content,
		ResourceID:   p.ResourceID,
		ResourceType: resourceType,
		Category:     p.Category,
	})
	if err != nil {
		if s.log != nil {
			s.log.Error("failed to persist in-app notification", "error", err, "userId", p.UserID)
		}
		return false, err
	}

	return true, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.repo.List(ctx, userID, pageSize, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
