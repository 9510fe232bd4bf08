package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"

	"github.com/google/uuid"
)

// CollaborationCard is a collaboration with the joined data shown on list and kanban views.
type CollaborationCard struct {
	Collaboration
	InfluencerNickname   string
	InfluencerPlatform   string
	InfluencerPlatformID string
	StaffName            string
	FollowUpCount        int
	DispatchCount        int
	LastFollowUpAt       *time.Time
	HasResult            bool
}

// CollaborationFilter narrows list queries. StaffID already has visibility applied.
type CollaborationFilter struct {
	StaffID      *uuid.UUID
	InfluencerID *uuid.UUID
	Stage        *domain.Stage
	IsOverdue    *bool
	Keyword      string
}

type StageCount struct {
	Stage        domain.Stage
	Count        int
	OverdueCount int
}

const cardSelect = `SELECT ` + collaborationColumns + `,
		i.nickname, i.platform, i.platform_id, u.name,
		(SELECT COUNT(*) FROM follow_ups f WHERE f.collaboration_id = c.id),
		(SELECT COUNT(*) FROM sample_dispatches d WHERE d.collaboration_id = c.id),
		(SELECT MAX(f.created_at) FROM follow_ups f WHERE f.collaboration_id = c.id),
		EXISTS (SELECT 1 FROM collaboration_results res WHERE res.collaboration_id = c.id)
	FROM collaborations c
	JOIN influencers i ON i.id = c.influencer_id
	JOIN users u ON u.id = c.business_staff_id`

func buildCollaborationWhere(tenantID uuid.UUID, f CollaborationFilter) (string, []any) {
	clauses := []string{"c.brand_id = $1"}
	args := []any{tenantID}

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.StaffID != nil {
		add("c.business_staff_id = $%d", *f.StaffID)
	}
	if f.InfluencerID != nil {
		add("c.influencer_id = $%d", *f.InfluencerID)
	}
	if f.Stage != nil {
		add("c.stage = $%d", string(*f.Stage))
	}
	if f.IsOverdue != nil {
		add("c.is_overdue = $%d", *f.IsOverdue)
	}
	if keyword := strings.TrimSpace(f.Keyword); keyword != "" {
		args = append(args, "%"+escapeLike(keyword)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(i.nickname ILIKE $%d OR i.platform_id ILIKE $%d)", n, n))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

// ListCards returns a page of collaborations and the total number matching the filter.
func (r *Repository) ListCards(ctx context.Context, tenantID uuid.UUID, f CollaborationFilter, limit, offset int) ([]CollaborationCard, int, error) {
	where, args := buildCollaborationWhere(tenantID, f)

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM collaborations c
		JOIN influencers i ON i.id = c.influencer_id
		`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count collaborations: %w", err)
	}

	args = append(args, limit, offset)
	query := cardSelect + "\n\t" + where + fmt.Sprintf("\n\tORDER BY c.created_at DESC, c.id DESC\n\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	cards, err := r.queryCards(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// ListPipelineCards returns every matching collaboration, overdue first and most recently touched next.
func (r *Repository) ListPipelineCards(ctx context.Context, tenantID uuid.UUID, f CollaborationFilter) ([]CollaborationCard, error) {
	where, args := buildCollaborationWhere(tenantID, f)
	query := cardSelect + "\n\t" + where + "\n\tORDER BY c.is_overdue DESC, c.updated_at DESC, c.id ASC"
	return r.queryCards(ctx, query, args...)
}

// ListOverdueCards returns overdue collaborations, nearest deadline first.
func (r *Repository) ListOverdueCards(ctx context.Context, tenantID uuid.UUID, f CollaborationFilter, limit, offset int) ([]CollaborationCard, int, error) {
	overdue := true
	f.IsOverdue = &overdue
	where, args := buildCollaborationWhere(tenantID, f)

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM collaborations c
		JOIN influencers i ON i.id = c.influencer_id
		`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count overdue collaborations: %w", err)
	}

	args = append(args, limit, offset)
	query := cardSelect + "\n\t" + where + fmt.Sprintf("\n\tORDER BY c.deadline ASC, c.id ASC\n\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	cards, err := r.queryCards(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// CountByStage returns per-stage totals under the filter. Stages without rows are omitted.
func (r *Repository) CountByStage(ctx context.Context, tenantID uuid.UUID, f CollaborationFilter) ([]StageCount, error) {
	where, args := buildCollaborationWhere(tenantID, f)
	rows, err := r.pool.Query(ctx, `
		SELECT c.stage, COUNT(*), COUNT(*) FILTER (WHERE c.is_overdue)
		FROM collaborations c
		JOIN influencers i ON i.id = c.influencer_id
		`+where+`
		GROUP BY c.stage
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("count by stage: %w", err)
	}
	defer rows.Close()

	counts := make([]StageCount, 0, len(domain.Stages()))
	for rows.Next() {
		var sc StageCount
		var stage string
		if err := rows.Scan(&stage, &sc.Count, &sc.OverdueCount); err != nil {
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		sc.Stage = domain.Stage(stage)
		counts = append(counts, sc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}

func (r *Repository) queryCards(ctx context.Context, query string, args ...any) ([]CollaborationCard, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query collaboration cards: %w", err)
	}
	defer rows.Close()

	cards := make([]CollaborationCard, 0)
	for rows.Next() {
		var card CollaborationCard
		var stage string
		var blockReason *string
		targets := collaborationScanTargets(&card.Collaboration, &stage, &blockReason)
		targets = append(targets,
			&card.InfluencerNickname, &card.InfluencerPlatform, &card.InfluencerPlatformID, &card.StaffName,
			&card.FollowUpCount, &card.DispatchCount, &card.LastFollowUpAt, &card.HasResult,
		)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan collaboration card: %w", err)
		}
		card.applyEnums(stage, blockReason)
		cards = append(cards, card)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return cards, nil
}
