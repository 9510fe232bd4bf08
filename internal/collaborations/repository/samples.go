package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"collab_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sampleNotFoundMsg = "sample not found"
	duplicateSKUMsg   = "a sample with this SKU already exists"
	sampleInUseMsg    = "sample has dispatch records and cannot be deleted"
)

type Sample struct {
	ID          uuid.UUID
	BrandID     uuid.UUID
	SKU         string
	Name        string
	UnitCost    int64
	RetailPrice int64
	CanResend   bool
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateSampleParams struct {
	BrandID     uuid.UUID
	SKU         string
	Name        string
	UnitCost    int64
	RetailPrice int64
	CanResend   bool
	Notes       *string
}

type SampleUpdate struct {
	SKU         *string
	Name        *string
	UnitCost    *int64
	RetailPrice *int64
	CanResend   *bool
	Notes       *string
}

const sampleColumns = `id, brand_id, sku, name, unit_cost, retail_price, can_resend, notes, created_at, updated_at`

func scanSample(row pgx.Row) (Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.BrandID, &s.SKU, &s.Name, &s.UnitCost, &s.RetailPrice, &s.CanResend, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func mapSampleWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperr.Conflict(duplicateSKUMsg).WithDetails(map[string]string{"field": "sku"})
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(sampleNotFoundMsg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *Repository) CreateSample(ctx context.Context, p CreateSampleParams) (Sample, error) {
	s, err := scanSample(r.pool.QueryRow(ctx, `
		INSERT INTO samples (brand_id, sku, name, unit_cost, retail_price, can_resend, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+sampleColumns,
		p.BrandID, p.SKU, p.Name, p.UnitCost, p.RetailPrice, p.CanResend, p.Notes,
	))
	if err != nil {
		return Sample{}, mapSampleWriteErr("insert sample", err)
	}
	return s, nil
}

func (r *Repository) GetSample(ctx context.Context, tenantID, id uuid.UUID) (Sample, error) {
	s, err := scanSample(r.pool.QueryRow(ctx, `
		SELECT `+sampleColumns+` FROM samples WHERE id = $1 AND brand_id = $2
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sample{}, apperr.NotFound(sampleNotFoundMsg)
	}
	if err != nil {
		return Sample{}, fmt.Errorf("get sample: %w", err)
	}
	return s, nil
}

// UpdateSample applies the non-nil fields. Existing dispatches keep their cost snapshots.
func (r *Repository) UpdateSample(ctx context.Context, tenantID, id uuid.UUID, u SampleUpdate) (Sample, error) {
	s, err := scanSample(r.pool.QueryRow(ctx, `
		UPDATE samples SET
			sku = COALESCE($3, sku),
			name = COALESCE($4, name),
			unit_cost = COALESCE($5, unit_cost),
			retail_price = COALESCE($6, retail_price),
			can_resend = COALESCE($7, can_resend),
			notes = COALESCE($8, notes),
			updated_at = now()
		WHERE id = $1 AND brand_id = $2
		RETURNING `+sampleColumns,
		id, tenantID, u.SKU, u.Name, u.UnitCost, u.RetailPrice, u.CanResend, u.Notes,
	))
	if err != nil {
		return Sample{}, mapSampleWriteErr("update sample", err)
	}
	return s, nil
}

func (r *Repository) ListSamples(ctx context.Context, tenantID uuid.UUID, keyword string, limit, offset int) ([]Sample, int, error) {
	pattern := "%"
	if kw := strings.TrimSpace(keyword); kw != "" {
		pattern = "%" + escapeLike(kw) + "%"
	}

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM samples
		WHERE brand_id = $1 AND (sku ILIKE $2 OR name ILIKE $2)
	`, tenantID, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count samples: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+sampleColumns+` FROM samples
		WHERE brand_id = $1 AND (sku ILIKE $2 OR name ILIKE $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, tenantID, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	items := make([]Sample, 0, limit)
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan sample: %w", err)
		}
		items = append(items, s)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

// DeleteSample removes a sample that was never dispatched.
func (r *Repository) DeleteSample(ctx context.Context, tenantID, id uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin delete sample: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var dispatched bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM sample_dispatches WHERE sample_id = s.id)
		FROM samples s
		WHERE s.id = $1 AND s.brand_id = $2
		FOR UPDATE OF s
	`, id, tenantID).Scan(&dispatched)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(sampleNotFoundMsg)
	}
	if err != nil {
		return fmt.Errorf("load sample for delete: %w", err)
	}
	if dispatched {
		return apperr.BadRequest(sampleInUseMsg)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM samples WHERE id = $1 AND brand_id = $2`, id, tenantID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperr.BadRequest(sampleInUseMsg)
		}
		return fmt.Errorf("delete sample: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete sample: %w", err)
	}
	return nil
}
