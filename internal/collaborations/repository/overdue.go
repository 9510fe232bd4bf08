package repository

import (
	"context"
	"fmt"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// markOverdueQuery and clearOverdueQuery are exact complements for a given $1, so running
// both twice with the same instant changes nothing the second time.
const markOverdueQuery = `
	WITH marked AS (
		UPDATE collaborations c
		SET is_overdue = TRUE
		WHERE c.is_overdue = FALSE
			AND c.deadline IS NOT NULL
			AND c.deadline < $1
			AND c.stage <> ALL($2::text[])
			AND ($3::uuid IS NULL OR c.brand_id = $3)
		RETURNING c.id, c.brand_id, c.business_staff_id, c.influencer_id, c.stage, c.deadline
	)
	SELECT m.id, m.brand_id, m.business_staff_id, i.nickname, m.stage, m.deadline
	FROM marked m
	JOIN influencers i ON i.id = m.influencer_id
	ORDER BY m.deadline ASC, m.id ASC
`

const clearOverdueQuery = `
	UPDATE collaborations c
	SET is_overdue = FALSE
	WHERE c.is_overdue = TRUE
		AND (c.deadline IS NULL OR c.deadline >= $1 OR c.stage = ANY($2::text[]))
		AND ($3::uuid IS NULL OR c.brand_id = $3)
`

const listDeadlinesApproachingQuery = `
	SELECT c.id, c.brand_id, c.business_staff_id, i.nickname, c.stage, c.deadline
	FROM collaborations c
	JOIN influencers i ON i.id = c.influencer_id
	WHERE c.deadline >= $1 AND c.deadline < $2
		AND c.is_overdue = FALSE
		AND c.stage <> ALL($3::text[])
		AND ($4::uuid IS NULL OR c.brand_id = $4)
	ORDER BY c.deadline ASC, c.id ASC
`

// OverdueCollaboration identifies a collaboration whose overdue flag was just raised or
// whose deadline is close, with the people to tell about it.
type OverdueCollaboration struct {
	ID                 uuid.UUID
	BrandID            uuid.UUID
	BusinessStaffID    uuid.UUID
	InfluencerNickname string
	Stage              domain.Stage
	Deadline           time.Time
}

// ReconcileOverdue brings every is_overdue flag in line with the deadline as of now.
// Both updates run in one transaction against the same instant, so a second call with the
// same now changes nothing. A nil tenantID sweeps all tenants.
func (r *Repository) ReconcileOverdue(ctx context.Context, tenantID *uuid.UUID, now time.Time) ([]OverdueCollaboration, int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("begin reconcile overdue: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	terminal := terminalStageNames()

	rows, err := tx.Query(ctx, markOverdueQuery, now, terminal, tenantID)
	if err != nil {
		return nil, 0, fmt.Errorf("mark overdue: %w", err)
	}
	marked, err := scanOverdueRows(rows)
	if err != nil {
		return nil, 0, err
	}

	tag, err := tx.Exec(ctx, clearOverdueQuery, now, terminal, tenantID)
	if err != nil {
		return nil, 0, fmt.Errorf("clear overdue: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit reconcile overdue: %w", err)
	}
	return marked, tag.RowsAffected(), nil
}

// ListDeadlinesApproaching returns open collaborations whose deadline lies in [now, until).
func (r *Repository) ListDeadlinesApproaching(ctx context.Context, tenantID *uuid.UUID, now, until time.Time) ([]OverdueCollaboration, error) {
	rows, err := r.pool.Query(ctx, listDeadlinesApproachingQuery, now, until, terminalStageNames(), tenantID)
	if err != nil {
		return nil, fmt.Errorf("list deadlines approaching: %w", err)
	}
	return scanOverdueRows(rows)
}

func scanOverdueRows(rows pgx.Rows) ([]OverdueCollaboration, error) {
	defer rows.Close()

	items := make([]OverdueCollaboration, 0)
	for rows.Next() {
		var item OverdueCollaboration
		var stage string
		if err := rows.Scan(&item.ID, &item.BrandID, &item.BusinessStaffID, &item.InfluencerNickname, &stage, &item.Deadline); err != nil {
			return nil, fmt.Errorf("scan overdue collaboration: %w", err)
		}
		item.Stage = domain.Stage(stage)
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
