package repository

import (
	"strings"
	"testing"

	"collab_pipeline_backend/internal/collaborations/domain"

	"github.com/google/uuid"
)

func requireFragments(t *testing.T, name, query string, fragments ...string) {
	t.Helper()
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	for _, fragment := range fragments {
		if !strings.Contains(normalized, fragment) {
			t.Fatalf("%s: expected fragment %q to be present", name, fragment)
		}
	}
}

func TestFindActiveClaimsQueryExcludesOwnAndClosedCollaborations(t *testing.T) {
	requireFragments(t, "findActiveClaimsQuery", findActiveClaimsQuery,
		"where c.brand_id = $1",
		"and c.influencer_id = $2",
		"and c.business_staff_id <> $3",
		"and c.stage <> $4",
		"order by c.created_at asc, c.id asc",
	)
}

func TestOverdueQueriesAreComplementary(t *testing.T) {
	requireFragments(t, "markOverdueQuery", markOverdueQuery,
		"set is_overdue = true",
		"where c.is_overdue = false",
		"and c.deadline is not null",
		"and c.deadline < $1",
		"and c.stage <> all($2::text[])",
		"($3::uuid is null or c.brand_id = $3)",
	)
	requireFragments(t, "clearOverdueQuery", clearOverdueQuery,
		"set is_overdue = false",
		"where c.is_overdue = true",
		"(c.deadline is null or c.deadline >= $1 or c.stage = any($2::text[]))",
		"($3::uuid is null or c.brand_id = $3)",
	)
}

func TestDeadlinesApproachingQuerySkipsOverdueAndTerminal(t *testing.T) {
	requireFragments(t, "listDeadlinesApproachingQuery", listDeadlinesApproachingQuery,
		"c.deadline >= $1 and c.deadline < $2",
		"c.is_overdue = false",
		"c.stage <> all($3::text[])",
		"($4::uuid is null or c.brand_id = $4)",
	)
}

func TestTerminalStageNamesMatchDomain(t *testing.T) {
	names := terminalStageNames()
	if len(names) != 2 || names[0] != string(domain.StagePublished) || names[1] != string(domain.StageReviewed) {
		t.Fatalf("unexpected terminal stages %v", names)
	}
}

func TestStageHistoryIsOrderedByInsertSequence(t *testing.T) {
	requireFragments(t, "insertStageHistoryQuery", insertStageHistoryQuery, "clock_timestamp()")
	requireFragments(t, "listStageHistoryQuery", listStageHistoryQuery,
		"where h.collaboration_id = $1 and c.brand_id = $2",
		"order by h.seq asc",
	)
	if strings.Contains(strings.ToLower(listStageHistoryQuery), "order by h.changed_at") {
		t.Fatal("history must not be ordered by transaction start time")
	}
}

func TestDeleteAndResultQueriesAreTenantScoped(t *testing.T) {
	requireFragments(t, "lockForDeleteQuery", lockForDeleteQuery,
		"where c.id = $1 and c.brand_id = $2",
		"for update of c",
	)
	requireFragments(t, "sumDispatchCostQuery", sumDispatchCostQuery,
		"sum(d.total_cost)",
		"where d.collaboration_id = $1",
	)
}

func TestCollaborationWhereAlwaysScopesTenant(t *testing.T) {
	tenant := uuid.New()

	where, args := buildCollaborationWhere(tenant, CollaborationFilter{})
	if where != "WHERE c.brand_id = $1" || len(args) != 1 || args[0] != tenant {
		t.Fatalf("unexpected unfiltered clause %q %v", where, args)
	}

	staff := uuid.New()
	stage := domain.StageQuoted
	overdue := true
	where, args = buildCollaborationWhere(tenant, CollaborationFilter{StaffID: &staff, Stage: &stage, IsOverdue: &overdue, Keyword: " 50%_off "})
	want := "WHERE c.brand_id = $1 AND c.business_staff_id = $2 AND c.stage = $3 AND c.is_overdue = $4 AND (i.nickname ILIKE $5 OR i.platform_id ILIKE $5)"
	if where != want {
		t.Fatalf("unexpected clause\n got: %s\nwant: %s", where, want)
	}
	if len(args) != 5 || args[0] != tenant || args[1] != staff || args[2] != "QUOTED" || args[3] != true {
		t.Fatalf("unexpected args %v", args)
	}
	if args[4] != `%50\%\_off%` {
		t.Fatalf("expected escaped keyword, got %v", args[4])
	}
}
