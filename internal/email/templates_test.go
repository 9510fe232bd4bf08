package email

import (
	"strings"
	"testing"
	"time"
)

func TestRenderOverdueDigestListsEveryItem(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	content, err := renderEmailTemplate("overdue.html", digestEmailData{
		baseEmailData: baseEmailData{Title: "t", Heading: "Collaborations overdue", CTALabel: "Open", CTAURL: "https://app.example.com/pipeline"},
		RecipientName: "Mia",
		Items: digestItems([]DigestItem{
			{InfluencerNickname: "alpha", Stage: "SAMPLED", Deadline: deadline},
			{InfluencerNickname: "beta<script>", Stage: "QUOTED"},
		}),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{"Hi Mia", "alpha", "SAMPLED", "2026-03-01 09:30 UTC", "https://app.example.com/pipeline"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in rendered email", want)
		}
	}
	if strings.Contains(content, "<script>") {
		t.Fatalf("expected nickname to be escaped")
	}
}

func TestFormatDeadlineZero(t *testing.T) {
	if got := formatDeadline(time.Time{}); got != "-" {
		t.Fatalf("expected dash for zero deadline, got %q", got)
	}
}
