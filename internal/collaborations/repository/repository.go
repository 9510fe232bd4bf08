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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	collaborationNotFoundMsg = "collaboration not found"
	hasResultMsg             = "collaboration already has a result and cannot be deleted"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository provides database operations for the collaborations bounded context.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new collaborations repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Collaboration struct {
	ID              uuid.UUID
	BrandID         uuid.UUID
	InfluencerID    uuid.UUID
	BusinessStaffID uuid.UUID
	Stage           domain.Stage
	SampleID        *uuid.UUID
	QuotedPrice     *int64
	Deadline        *time.Time
	IsOverdue       bool
	BlockReason     *domain.BlockReason
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateCollaborationParams struct {
	BrandID         uuid.UUID
	InfluencerID    uuid.UUID
	BusinessStaffID uuid.UUID
	SampleID        *uuid.UUID
	QuotedPrice     *int64
	Deadline        *time.Time
	IsOverdue       bool
	Notes           *string
	CreatedBy       uuid.UUID
}

const collaborationColumns = `c.id, c.brand_id, c.influencer_id, c.business_staff_id, c.stage, c.sample_id,
	c.quoted_price, c.deadline, c.is_overdue, c.block_reason, c.notes, c.created_at, c.updated_at`

func collaborationScanTargets(c *Collaboration, stage *string, blockReason **string) []any {
	return []any{
		&c.ID, &c.BrandID, &c.InfluencerID, &c.BusinessStaffID, stage, &c.SampleID,
		&c.QuotedPrice, &c.Deadline, &c.IsOverdue, blockReason, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	}
}

func (c *Collaboration) applyEnums(stage string, blockReason *string) {
	c.Stage = domain.Stage(stage)
	if blockReason != nil {
		reason := domain.BlockReason(*blockReason)
		c.BlockReason = &reason
	} else {
		c.BlockReason = nil
	}
}

func scanCollaboration(row pgx.Row) (Collaboration, error) {
	var c Collaboration
	var stage string
	var blockReason *string
	if err := row.Scan(collaborationScanTargets(&c, &stage, &blockReason)...); err != nil {
		return Collaboration{}, err
	}
	c.applyEnums(stage, blockReason)
	return c, nil
}

// Create inserts a collaboration at LEAD together with its creation history entry.
func (r *Repository) Create(ctx context.Context, p CreateCollaborationParams) (Collaboration, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Collaboration{}, fmt.Errorf("begin create collaboration: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanCollaboration(tx.QueryRow(ctx, `
		INSERT INTO collaborations AS c
			(brand_id, influencer_id, business_staff_id, stage, sample_id, quoted_price, deadline, is_overdue, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+collaborationColumns,
		p.BrandID, p.InfluencerID, p.BusinessStaffID, string(domain.StageLead), p.SampleID,
		p.QuotedPrice, p.Deadline, p.IsOverdue, p.Notes,
	))
	if err != nil {
		return Collaboration{}, fmt.Errorf("insert collaboration: %w", err)
	}

	if err := insertHistory(ctx, tx, created.ID, nil, domain.StageLead, nil, &p.CreatedBy); err != nil {
		return Collaboration{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Collaboration{}, fmt.Errorf("commit create collaboration: %w", err)
	}
	return created, nil
}

// GetByID returns a collaboration of the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Collaboration, error) {
	return getCollaboration(ctx, r.pool, tenantID, id)
}

func getCollaboration(ctx context.Context, q querier, tenantID, id uuid.UUID) (Collaboration, error) {
	c, err := scanCollaboration(q.QueryRow(ctx, `
		SELECT `+collaborationColumns+`
		FROM collaborations c
		WHERE c.id = $1 AND c.brand_id = $2
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Collaboration{}, apperr.NotFound(collaborationNotFoundMsg)
	}
	if err != nil {
		return Collaboration{}, fmt.Errorf("get collaboration: %w", err)
	}
	return c, nil
}

const lockForDeleteQuery = `
	SELECT EXISTS (SELECT 1 FROM collaboration_results res WHERE res.collaboration_id = c.id)
	FROM collaborations c
	WHERE c.id = $1 AND c.brand_id = $2
	FOR UPDATE OF c
`

// Delete removes a collaboration with its history, follow-ups and dispatches.
// A collaboration with a result is never deleted.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin delete collaboration: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var hasResult bool
	err = tx.QueryRow(ctx, lockForDeleteQuery, id, tenantID).Scan(&hasResult)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(collaborationNotFoundMsg)
	}
	if err != nil {
		return fmt.Errorf("load collaboration for delete: %w", err)
	}
	if hasResult {
		return apperr.BadRequest(hasResultMsg)
	}

	// History, follow-ups and dispatches go with the row through ON DELETE CASCADE.
	if _, err := tx.Exec(ctx, `DELETE FROM collaborations WHERE id = $1 AND brand_id = $2`, id, tenantID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperr.BadRequest(hasResultMsg)
		}
		return fmt.Errorf("delete collaboration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete collaboration: %w", err)
	}
	return nil
}

// UpdateDeadline sets or clears the deadline and recomputes the overdue flag in the same statement.
func (r *Repository) UpdateDeadline(ctx context.Context, tenantID, id uuid.UUID, deadline *time.Time, now time.Time) (Collaboration, error) {
	c, err := scanCollaboration(r.pool.QueryRow(ctx, `
		UPDATE collaborations AS c
		SET deadline = $3,
			is_overdue = ($3::timestamptz IS NOT NULL AND $3::timestamptz < $4 AND c.stage <> ALL($5::text[])),
			updated_at = now()
		WHERE c.id = $1 AND c.brand_id = $2
		RETURNING `+collaborationColumns,
		id, tenantID, deadline, now, terminalStageNames(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Collaboration{}, apperr.NotFound(collaborationNotFoundMsg)
	}
	if err != nil {
		return Collaboration{}, fmt.Errorf("update deadline: %w", err)
	}
	return c, nil
}

// UpdateBlockReason sets or clears the block reason, optionally appending a follow-up in the same transaction.
func (r *Repository) UpdateBlockReason(ctx context.Context, tenantID, id uuid.UUID, reason *domain.BlockReason, followUp *CreateFollowUpParams) (Collaboration, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Collaboration{}, fmt.Errorf("begin update block reason: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var reasonArg *string
	if reason != nil {
		value := string(*reason)
		reasonArg = &value
	}

	c, err := scanCollaboration(tx.QueryRow(ctx, `
		UPDATE collaborations AS c
		SET block_reason = $3, updated_at = now()
		WHERE c.id = $1 AND c.brand_id = $2
		RETURNING `+collaborationColumns,
		id, tenantID, reasonArg,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Collaboration{}, apperr.NotFound(collaborationNotFoundMsg)
	}
	if err != nil {
		return Collaboration{}, fmt.Errorf("update block reason: %w", err)
	}

	if followUp != nil {
		if _, err := insertFollowUp(ctx, tx, c.ID, followUp.UserID, followUp.Content); err != nil {
			return Collaboration{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Collaboration{}, fmt.Errorf("commit update block reason: %w", err)
	}
	return c, nil
}

func terminalStageNames() []string {
	stages := domain.TerminalCompleteStages()
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, string(s))
	}
	return names
}
