package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type FollowUp struct {
	ID              uuid.UUID
	CollaborationID uuid.UUID
	UserID          uuid.UUID
	UserName        string
	Content         string
	CreatedAt       time.Time
}

type CreateFollowUpParams struct {
	UserID  uuid.UUID
	Content string
}

// CreateFollowUp appends a note to a collaboration. The caller has checked tenant ownership.
func (r *Repository) CreateFollowUp(ctx context.Context, collaborationID uuid.UUID, p CreateFollowUpParams) (FollowUp, error) {
	return insertFollowUp(ctx, r.pool, collaborationID, p.UserID, p.Content)
}

func insertFollowUp(ctx context.Context, q querier, collaborationID, userID uuid.UUID, content string) (FollowUp, error) {
	var f FollowUp
	err := q.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO follow_ups (collaboration_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, collaboration_id, user_id, content, created_at
		)
		SELECT inserted.id, inserted.collaboration_id, inserted.user_id, COALESCE(u.name, ''), inserted.content, inserted.created_at
		FROM inserted
		LEFT JOIN users u ON u.id = inserted.user_id
	`, collaborationID, userID, content).Scan(&f.ID, &f.CollaborationID, &f.UserID, &f.UserName, &f.Content, &f.CreatedAt)
	if err != nil {
		return FollowUp{}, fmt.Errorf("insert follow-up: %w", err)
	}
	return f, nil
}

// ListFollowUps returns a page of notes, newest first, and the total count.
func (r *Repository) ListFollowUps(ctx context.Context, tenantID, collaborationID uuid.UUID, limit, offset int) ([]FollowUp, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM follow_ups f
		JOIN collaborations c ON c.id = f.collaboration_id
		WHERE f.collaboration_id = $1 AND c.brand_id = $2
	`, collaborationID, tenantID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count follow-ups: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT f.id, f.collaboration_id, f.user_id, COALESCE(u.name, ''), f.content, f.created_at
		FROM follow_ups f
		JOIN collaborations c ON c.id = f.collaboration_id
		LEFT JOIN users u ON u.id = f.user_id
		WHERE f.collaboration_id = $1 AND c.brand_id = $2
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT $3 OFFSET $4
	`, collaborationID, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list follow-ups: %w", err)
	}
	defer rows.Close()

	items := make([]FollowUp, 0, limit)
	for rows.Next() {
		var f FollowUp
		if err := rows.Scan(&f.ID, &f.CollaborationID, &f.UserID, &f.UserName, &f.Content, &f.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan follow-up: %w", err)
		}
		items = append(items, f)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}
