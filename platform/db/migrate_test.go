package db

import (
	"io/fs"
	"strings"
	"testing"
)

func readMigration(t *testing.T, name string) string {
	t.Helper()
	data, err := fs.ReadFile(embeddedMigrations, "migrations/"+name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return strings.ToLower(strings.Join(strings.Fields(string(data)), " "))
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) < 3 {
		t.Fatalf("expected at least 3 migrations, got %d", len(entries))
	}
}

func TestResultROIColumnHoldsAnyCentRatio(t *testing.T) {
	// gmv up to MaxInt64 over a cost of 1 needs 19 integer digits.
	sql := readMigration(t, "00002_collaborations.sql")
	if !strings.Contains(sql, "roi numeric(24, 4) not null") {
		t.Fatal("expected roi column NUMERIC(24, 4)")
	}
}

func TestStageHistoryHasInsertSequence(t *testing.T) {
	sql := readMigration(t, "00002_collaborations.sql")
	for _, fragment := range []string{
		"seq bigserial not null",
		"changed_at timestamptz not null default clock_timestamp()",
		"on stage_history (collaboration_id, seq)",
	} {
		if !strings.Contains(sql, fragment) {
			t.Fatalf("expected stage_history fragment %q", fragment)
		}
	}
}
