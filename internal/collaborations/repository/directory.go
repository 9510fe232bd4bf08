package repository

import (
	"context"
	"errors"
	"fmt"

	"collab_pipeline_backend/internal/collaborations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InfluencerExists reports whether the creator belongs to the tenant.
func (r *Repository) InfluencerExists(ctx context.Context, tenantID, influencerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM influencers WHERE id = $1 AND brand_id = $2)
	`, influencerID, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check influencer: %w", err)
	}
	return exists, nil
}

// StaffExists reports whether the user is a member of the tenant.
func (r *Repository) StaffExists(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND brand_id = $2)
	`, userID, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check staff: %w", err)
	}
	return exists, nil
}

// GetStaffAccess returns the stored visibility permissions of a tenant member.
// Users outside the tenant get no extra permissions.
func (r *Repository) GetStaffAccess(ctx context.Context, tenantID, userID uuid.UUID) (domain.StaffAccess, error) {
	var access domain.StaffAccess
	err := r.pool.QueryRow(ctx, `
		SELECT is_independent, can_view_others
		FROM users
		WHERE id = $1 AND brand_id = $2
	`, userID, tenantID).Scan(&access.IsIndependent, &access.CanViewOthers)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StaffAccess{}, nil
	}
	if err != nil {
		return domain.StaffAccess{}, fmt.Errorf("get staff access: %w", err)
	}
	return access, nil
}
