package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	resultNotFoundMsg = "result not found"
	resultExistsMsg   = "collaboration already has a result"
)

type Result struct {
	ID                     uuid.UUID
	CollaborationID        uuid.UUID
	ContentType            string
	PublishedAt            time.Time
	SalesQuantity          int
	SalesGmv               int64
	CommissionRateBps      int
	PitFee                 int64
	ActualCommission       int64
	TotalSampleCost        int64
	TotalCollaborationCost int64
	ROI                    float64
	ProfitStatus           domain.ProfitStatus
	WillRepeat             bool
	Notes                  *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type CreateResultParams struct {
	TenantID          uuid.UUID
	CollaborationID   uuid.UUID
	ContentType       string
	PublishedAt       time.Time
	SalesQuantity     int
	SalesGmv          int64
	CommissionRateBps int
	PitFee            int64
	ActualCommission  int64
	WillRepeat        bool
	Notes             *string
	ActorID           uuid.UUID
	// ReviewNote is written to the stage history when recording the result closes the collaboration.
	ReviewNote string
}

// Dispatch totals are summed from their frozen snapshots, never from current sample prices.
const sumDispatchCostQuery = `
	SELECT COALESCE(SUM(d.total_cost), 0)::bigint
	FROM sample_dispatches d
	WHERE d.collaboration_id = $1
`

// ResultEvaluator derives the financial fields from the summed dispatch cost.
type ResultEvaluator func(totalSampleCost int64) (domain.ResultOutcome, error)

type ResultFilter struct {
	StaffID      *uuid.UUID
	ProfitStatus *domain.ProfitStatus
	ContentType  *string
}

const resultColumns = `r.id, r.collaboration_id, r.content_type, r.published_at, r.sales_quantity, r.sales_gmv,
	r.commission_rate_bps, r.pit_fee, r.actual_commission, r.total_sample_cost, r.total_collaboration_cost,
	r.roi::float8, r.profit_status, r.will_repeat, r.notes, r.created_at, r.updated_at`

func scanResult(row pgx.Row) (Result, error) {
	var res Result
	var status string
	err := row.Scan(&res.ID, &res.CollaborationID, &res.ContentType, &res.PublishedAt, &res.SalesQuantity, &res.SalesGmv,
		&res.CommissionRateBps, &res.PitFee, &res.ActualCommission, &res.TotalSampleCost, &res.TotalCollaborationCost,
		&res.ROI, &status, &res.WillRepeat, &res.Notes, &res.CreatedAt, &res.UpdatedAt)
	res.ProfitStatus = domain.ProfitStatus(status)
	return res, err
}

// CreateResult records the outcome of a collaboration in one transaction: it locks the
// collaboration, rejects a second result, sums dispatch costs as they are right now,
// inserts the result and moves the collaboration to REVIEWED with a history entry.
func (r *Repository) CreateResult(ctx context.Context, p CreateResultParams, evaluate ResultEvaluator) (Result, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("begin create result: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	collab, err := lockCollaboration(ctx, tx, p.TenantID, p.CollaborationID)
	if err != nil {
		return Result{}, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM collaboration_results WHERE collaboration_id = $1)
	`, p.CollaborationID).Scan(&exists); err != nil {
		return Result{}, fmt.Errorf("check existing result: %w", err)
	}
	if exists {
		return Result{}, apperr.BadRequest(resultExistsMsg)
	}

	var totalSampleCost int64
	if err := tx.QueryRow(ctx, sumDispatchCostQuery, p.CollaborationID).Scan(&totalSampleCost); err != nil {
		return Result{}, fmt.Errorf("sum dispatch cost: %w", err)
	}

	outcome, err := evaluate(totalSampleCost)
	if err != nil {
		return Result{}, err
	}

	res, err := scanResult(tx.QueryRow(ctx, `
		INSERT INTO collaboration_results AS r
			(collaboration_id, content_type, published_at, sales_quantity, sales_gmv, commission_rate_bps,
			 pit_fee, actual_commission, total_sample_cost, total_collaboration_cost, roi, profit_status,
			 will_repeat, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+resultColumns,
		p.CollaborationID, p.ContentType, p.PublishedAt, p.SalesQuantity, p.SalesGmv, p.CommissionRateBps,
		p.PitFee, p.ActualCommission, outcome.TotalSampleCost, outcome.TotalCollaborationCost, outcome.ROI,
		string(outcome.ProfitStatus), p.WillRepeat, p.Notes,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Result{}, apperr.BadRequest(resultExistsMsg)
		}
		return Result{}, fmt.Errorf("insert result: %w", err)
	}

	if collab.Stage != domain.StageReviewed {
		if _, err := setStage(ctx, tx, p.TenantID, p.CollaborationID, domain.StageReviewed); err != nil {
			return Result{}, err
		}
		from := collab.Stage
		var note *string
		if p.ReviewNote != "" {
			note = &p.ReviewNote
		}
		if err := insertHistory(ctx, tx, p.CollaborationID, &from, domain.StageReviewed, note, &p.ActorID); err != nil {
			return Result{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit create result: %w", err)
	}
	return res, nil
}

// UpdateResult locks a tenant's result, lets apply compute the new row and writes it back.
func (r *Repository) UpdateResult(ctx context.Context, tenantID, id uuid.UUID, apply func(current Result) (Result, error)) (Result, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("begin update result: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanResult(tx.QueryRow(ctx, `
		SELECT `+resultColumns+`
		FROM collaboration_results r
		JOIN collaborations c ON c.id = r.collaboration_id
		WHERE r.id = $1 AND c.brand_id = $2
		FOR UPDATE OF r
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Result{}, apperr.NotFound(resultNotFoundMsg)
	}
	if err != nil {
		return Result{}, fmt.Errorf("lock result: %w", err)
	}

	next, err := apply(current)
	if err != nil {
		return Result{}, err
	}

	updated, err := scanResult(tx.QueryRow(ctx, `
		UPDATE collaboration_results AS r SET
			content_type = $2, published_at = $3, sales_quantity = $4, sales_gmv = $5,
			commission_rate_bps = $6, pit_fee = $7, actual_commission = $8,
			total_collaboration_cost = $9, roi = $10, profit_status = $11,
			will_repeat = $12, notes = $13, updated_at = now()
		WHERE r.id = $1
		RETURNING `+resultColumns,
		id, next.ContentType, next.PublishedAt, next.SalesQuantity, next.SalesGmv,
		next.CommissionRateBps, next.PitFee, next.ActualCommission,
		next.TotalCollaborationCost, next.ROI, string(next.ProfitStatus),
		next.WillRepeat, next.Notes,
	))
	if err != nil {
		return Result{}, fmt.Errorf("update result: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit update result: %w", err)
	}
	return updated, nil
}

func (r *Repository) GetResult(ctx context.Context, tenantID, id uuid.UUID) (Result, error) {
	res, err := scanResult(r.pool.QueryRow(ctx, `
		SELECT `+resultColumns+`
		FROM collaboration_results r
		JOIN collaborations c ON c.id = r.collaboration_id
		WHERE r.id = $1 AND c.brand_id = $2
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Result{}, apperr.NotFound(resultNotFoundMsg)
	}
	if err != nil {
		return Result{}, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

func (r *Repository) ListResults(ctx context.Context, tenantID uuid.UUID, f ResultFilter, limit, offset int) ([]Result, int, error) {
	clauses := []string{"c.brand_id = $1"}
	args := []any{tenantID}
	if f.StaffID != nil {
		args = append(args, *f.StaffID)
		clauses = append(clauses, fmt.Sprintf("c.business_staff_id = $%d", len(args)))
	}
	if f.ProfitStatus != nil {
		args = append(args, string(*f.ProfitStatus))
		clauses = append(clauses, fmt.Sprintf("r.profit_status = $%d", len(args)))
	}
	if f.ContentType != nil {
		args = append(args, *f.ContentType)
		clauses = append(clauses, fmt.Sprintf("r.content_type = $%d", len(args)))
	}
	where := "WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM collaboration_results r
		JOIN collaborations c ON c.id = r.collaboration_id
		`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, `
		SELECT `+resultColumns+`
		FROM collaboration_results r
		JOIN collaborations c ON c.id = r.collaboration_id
		`+where+fmt.Sprintf(`
		ORDER BY r.published_at DESC, r.id DESC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	items := make([]Result, 0, limit)
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan result: %w", err)
		}
		items = append(items, res)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

// ReportGroup selects the dimension the ROI report aggregates over.
type ReportGroup string

const (
	ReportByStaff      ReportGroup = "staff"
	ReportByInfluencer ReportGroup = "influencer"
	ReportByMonth      ReportGroup = "month"
)

type ReportFilter struct {
	GroupBy ReportGroup
	StaffID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

// ReportRow holds summed cents for one group; ROI and status are derived by the caller.
type ReportRow struct {
	Key       string
	Label     string
	Count     int
	TotalGmv  int64
	TotalCost int64
}

// AggregateResults sums gmv and cost of the tenant's results per group, largest gmv first.
func (r *Repository) AggregateResults(ctx context.Context, tenantID uuid.UUID, f ReportFilter) ([]ReportRow, error) {
	var keyExpr, labelExpr, joins string
	switch f.GroupBy {
	case ReportByStaff:
		keyExpr, labelExpr = "c.business_staff_id::text", "MAX(u.name)"
		joins = "JOIN users u ON u.id = c.business_staff_id"
	case ReportByInfluencer:
		keyExpr, labelExpr = "c.influencer_id::text", "MAX(i.nickname)"
		joins = "JOIN influencers i ON i.id = c.influencer_id"
	case ReportByMonth:
		keyExpr = "to_char(date_trunc('month', r.published_at), 'YYYY-MM')"
		labelExpr = keyExpr
	default:
		return nil, apperr.ValidationField("groupBy", "groupBy must be one of staff, influencer, month")
	}

	clauses := []string{"c.brand_id = $1"}
	args := []any{tenantID}
	if f.StaffID != nil {
		args = append(args, *f.StaffID)
		clauses = append(clauses, fmt.Sprintf("c.business_staff_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		clauses = append(clauses, fmt.Sprintf("r.published_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		clauses = append(clauses, fmt.Sprintf("r.published_at < $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+keyExpr+`, `+labelExpr+`, COUNT(*),
			COALESCE(SUM(r.sales_gmv), 0)::bigint, COALESCE(SUM(r.total_collaboration_cost), 0)::bigint
		FROM collaboration_results r
		JOIN collaborations c ON c.id = r.collaboration_id
		`+joins+`
		WHERE `+strings.Join(clauses, " AND ")+`
		GROUP BY 1
		ORDER BY 4 DESC, 1 ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate results: %w", err)
	}
	defer rows.Close()

	items := make([]ReportRow, 0)
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(&row.Key, &row.Label, &row.Count, &row.TotalGmv, &row.TotalCost); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		items = append(items, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
