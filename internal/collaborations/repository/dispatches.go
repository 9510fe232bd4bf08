package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collab_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const dispatchNotFoundMsg = "dispatch not found"

type SampleDispatch struct {
	ID               uuid.UUID
	SampleID         uuid.UUID
	SampleSKU        string
	SampleName       string
	CollaborationID  uuid.UUID
	BusinessStaffID  uuid.UUID
	Quantity         int
	UnitCostSnapshot int64
	ShippingCost     int64
	TotalSampleCost  int64
	TotalCost        int64
	TrackingNumber   *string
	ReceivedStatus   string
	ReceivedAt       *time.Time
	OnboardStatus    string
	DispatchedAt     time.Time
	UpdatedAt        time.Time
}

type CreateDispatchParams struct {
	SampleID         uuid.UUID
	CollaborationID  uuid.UUID
	BusinessStaffID  uuid.UUID
	Quantity         int
	UnitCostSnapshot int64
	ShippingCost     int64
	TotalSampleCost  int64
	TotalCost        int64
	TrackingNumber   *string
}

type DispatchStatusUpdate struct {
	ReceivedStatus *string
	OnboardStatus  *string
	TrackingNumber *string
	// MarkReceivedAt stamps received_at when the shipment arrives.
	MarkReceivedAt *time.Time
}

const dispatchSelect = `SELECT d.id, d.sample_id, s.sku, s.name, d.collaboration_id, d.business_staff_id,
		d.quantity, d.unit_cost_snapshot, d.shipping_cost, d.total_sample_cost, d.total_cost,
		d.tracking_number, d.received_status, d.received_at, d.onboard_status, d.dispatched_at, d.updated_at
	FROM sample_dispatches d
	JOIN samples s ON s.id = d.sample_id
	JOIN collaborations c ON c.id = d.collaboration_id`

func scanDispatch(row pgx.Row) (SampleDispatch, error) {
	var d SampleDispatch
	err := row.Scan(&d.ID, &d.SampleID, &d.SampleSKU, &d.SampleName, &d.CollaborationID, &d.BusinessStaffID,
		&d.Quantity, &d.UnitCostSnapshot, &d.ShippingCost, &d.TotalSampleCost, &d.TotalCost,
		&d.TrackingNumber, &d.ReceivedStatus, &d.ReceivedAt, &d.OnboardStatus, &d.DispatchedAt, &d.UpdatedAt)
	return d, err
}

// CreateDispatch records a shipment with its precomputed, frozen cost.
func (r *Repository) CreateDispatch(ctx context.Context, p CreateDispatchParams) (SampleDispatch, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sample_dispatches
			(sample_id, collaboration_id, business_staff_id, quantity, unit_cost_snapshot,
			 shipping_cost, total_sample_cost, total_cost, tracking_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.SampleID, p.CollaborationID, p.BusinessStaffID, p.Quantity, p.UnitCostSnapshot,
		p.ShippingCost, p.TotalSampleCost, p.TotalCost, p.TrackingNumber).Scan(&id)
	if err != nil {
		return SampleDispatch{}, fmt.Errorf("insert dispatch: %w", err)
	}

	d, err := scanDispatch(r.pool.QueryRow(ctx, dispatchSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return SampleDispatch{}, fmt.Errorf("reload dispatch: %w", err)
	}
	return d, nil
}

func (r *Repository) GetDispatch(ctx context.Context, tenantID, id uuid.UUID) (SampleDispatch, error) {
	d, err := scanDispatch(r.pool.QueryRow(ctx, dispatchSelect+` WHERE d.id = $1 AND c.brand_id = $2`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return SampleDispatch{}, apperr.NotFound(dispatchNotFoundMsg)
	}
	if err != nil {
		return SampleDispatch{}, fmt.Errorf("get dispatch: %w", err)
	}
	return d, nil
}

// UpdateDispatchStatus changes logistics fields only; cost columns are never touched.
func (r *Repository) UpdateDispatchStatus(ctx context.Context, tenantID, id uuid.UUID, u DispatchStatusUpdate) (SampleDispatch, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sample_dispatches d SET
			received_status = COALESCE($3, d.received_status),
			onboard_status = COALESCE($4, d.onboard_status),
			tracking_number = COALESCE($5, d.tracking_number),
			received_at = COALESCE($6, d.received_at),
			updated_at = now()
		FROM collaborations c
		WHERE d.id = $1 AND c.id = d.collaboration_id AND c.brand_id = $2
	`, id, tenantID, u.ReceivedStatus, u.OnboardStatus, u.TrackingNumber, u.MarkReceivedAt)
	if err != nil {
		return SampleDispatch{}, fmt.Errorf("update dispatch status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return SampleDispatch{}, apperr.NotFound(dispatchNotFoundMsg)
	}
	return r.GetDispatch(ctx, tenantID, id)
}

// ListDispatches returns the shipments of a tenant's collaboration, oldest first.
func (r *Repository) ListDispatches(ctx context.Context, tenantID, collaborationID uuid.UUID) ([]SampleDispatch, error) {
	rows, err := r.pool.Query(ctx, dispatchSelect+`
		WHERE d.collaboration_id = $1 AND c.brand_id = $2
		ORDER BY d.dispatched_at ASC, d.id ASC
	`, collaborationID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	defer rows.Close()

	items := make([]SampleDispatch, 0)
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		items = append(items, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
