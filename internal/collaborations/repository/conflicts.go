package repository

import (
	"context"
	"fmt"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"

	"github.com/google/uuid"
)

// Closed (REVIEWED) collaborations never block a new claim.
const findActiveClaimsQuery = `
	SELECT c.id, c.business_staff_id, u.name, c.stage, c.created_at
	FROM collaborations c
	JOIN users u ON u.id = c.business_staff_id
	WHERE c.brand_id = $1
		AND c.influencer_id = $2
		AND c.business_staff_id <> $3
		AND c.stage <> $4
	ORDER BY c.created_at ASC, c.id ASC
`

// ActiveClaim is another staff member's open collaboration with the same creator.
type ActiveClaim struct {
	CollaborationID uuid.UUID
	StaffID         uuid.UUID
	StaffName       string
	Stage           domain.Stage
	ClaimedAt       time.Time
}

// FindActiveClaims lists open collaborations for the creator held by anyone but excludeStaffID,
// earliest claim first.
func (r *Repository) FindActiveClaims(ctx context.Context, tenantID, influencerID, excludeStaffID uuid.UUID) ([]ActiveClaim, error) {
	rows, err := r.pool.Query(ctx, findActiveClaimsQuery, tenantID, influencerID, excludeStaffID, string(domain.StageReviewed))
	if err != nil {
		return nil, fmt.Errorf("find active claims: %w", err)
	}
	defer rows.Close()

	claims := make([]ActiveClaim, 0)
	for rows.Next() {
		var claim ActiveClaim
		var stage string
		if err := rows.Scan(&claim.CollaborationID, &claim.StaffID, &claim.StaffName, &stage, &claim.ClaimedAt); err != nil {
			return nil, fmt.Errorf("scan active claim: %w", err)
		}
		claim.Stage = domain.Stage(stage)
		claims = append(claims, claim)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return claims, nil
}
