package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// History rows are written while the collaboration row is locked. seq is drawn at insert time,
// so it follows lock order; changed_at uses clock_timestamp() for the same reason.
const insertStageHistoryQuery = `
	INSERT INTO stage_history (collaboration_id, from_stage, to_stage, note, changed_by, changed_at)
	VALUES ($1, $2, $3, $4, $5, clock_timestamp())
`

const listStageHistoryQuery = `
	SELECT h.id, h.collaboration_id, h.from_stage, h.to_stage, h.note, h.changed_by, h.changed_at
	FROM stage_history h
	JOIN collaborations c ON c.id = h.collaboration_id
	WHERE h.collaboration_id = $1 AND c.brand_id = $2
	ORDER BY h.seq ASC
`

type StageHistoryEntry struct {
	ID              uuid.UUID
	CollaborationID uuid.UUID
	FromStage       *domain.Stage
	ToStage         domain.Stage
	Note            *string
	ChangedBy       *uuid.UUID
	ChangedAt       time.Time
}

type TransitionParams struct {
	TenantID        uuid.UUID
	CollaborationID uuid.UUID
	To              domain.Stage
	Note            *string
	ActorID         uuid.UUID
}

// TransitionStage moves a collaboration to p.To and appends one history entry, atomically.
// The row is locked first so from_stage is exactly the value being replaced. guard is called
// with that value before anything is written. Moving to the current stage writes nothing and
// reports changed=false.
func (r *Repository) TransitionStage(ctx context.Context, p TransitionParams, guard func(from domain.Stage) error) (Collaboration, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Collaboration{}, false, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := lockCollaboration(ctx, tx, p.TenantID, p.CollaborationID)
	if err != nil {
		return Collaboration{}, false, err
	}
	if current.Stage == p.To {
		return current, false, nil
	}
	if guard != nil {
		if err := guard(current.Stage); err != nil {
			return Collaboration{}, false, err
		}
	}

	updated, err := setStage(ctx, tx, p.TenantID, p.CollaborationID, p.To)
	if err != nil {
		return Collaboration{}, false, err
	}
	from := current.Stage
	if err := insertHistory(ctx, tx, p.CollaborationID, &from, p.To, p.Note, &p.ActorID); err != nil {
		return Collaboration{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Collaboration{}, false, fmt.Errorf("commit transition: %w", err)
	}
	return updated, true, nil
}

// ListStageHistory returns the audit trail of a tenant's collaboration, oldest first.
func (r *Repository) ListStageHistory(ctx context.Context, tenantID, collaborationID uuid.UUID) ([]StageHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, listStageHistoryQuery, collaborationID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list stage history: %w", err)
	}
	defer rows.Close()

	items := make([]StageHistoryEntry, 0)
	for rows.Next() {
		var e StageHistoryEntry
		var from *string
		var to string
		if err := rows.Scan(&e.ID, &e.CollaborationID, &from, &to, &e.Note, &e.ChangedBy, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan stage history: %w", err)
		}
		if from != nil {
			s := domain.Stage(*from)
			e.FromStage = &s
		}
		e.ToStage = domain.Stage(to)
		items = append(items, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func lockCollaboration(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (Collaboration, error) {
	c, err := scanCollaboration(tx.QueryRow(ctx, `
		SELECT `+collaborationColumns+`
		FROM collaborations c
		WHERE c.id = $1 AND c.brand_id = $2
		FOR UPDATE
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Collaboration{}, apperr.NotFound(collaborationNotFoundMsg)
	}
	if err != nil {
		return Collaboration{}, fmt.Errorf("lock collaboration: %w", err)
	}
	return c, nil
}

func setStage(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID, stage domain.Stage) (Collaboration, error) {
	c, err := scanCollaboration(tx.QueryRow(ctx, `
		UPDATE collaborations AS c
		SET stage = $3, updated_at = now()
		WHERE c.id = $1 AND c.brand_id = $2
		RETURNING `+collaborationColumns,
		id, tenantID, string(stage),
	))
	if err != nil {
		return Collaboration{}, fmt.Errorf("update stage: %w", err)
	}
	return c, nil
}

func insertHistory(ctx context.Context, q querier, collaborationID uuid.UUID, from *domain.Stage, to domain.Stage, note *string, actorID *uuid.UUID) error {
	var fromArg *string
	if from != nil {
		value := string(*from)
		fromArg = &value
	}
	if actorID != nil && *actorID == uuid.Nil {
		actorID = nil
	}

	_, err := q.Exec(ctx, insertStageHistoryQuery, collaborationID, fromArg, string(to), note, actorID)
	if err != nil {
		return fmt.Errorf("insert stage history: %w", err)
	}
	return nil
}
