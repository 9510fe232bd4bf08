package domain

import (
	"math"
	"testing"
)

func TestProfitStatusForROIBoundaries(t *testing.T) {
	cases := []struct {
		roi  float64
		want ProfitStatus
	}{
		{0, ProfitLoss},
		{0.999999, ProfitLoss},
		{1.0, ProfitBreakEven},
		{1.000001, ProfitProfit},
		{2.999999, ProfitProfit},
		{3.0, ProfitHighProfit},
		{12.5, ProfitHighProfit},
	}

	for _, tc := range cases {
		if got := ProfitStatusForROI(tc.roi); got != tc.want {
			t.Errorf("ProfitStatusForROI(%v) = %s, want %s", tc.roi, got, tc.want)
		}
	}
}

func TestClassifyProfitMatchesROIThresholds(t *testing.T) {
	cases := []struct {
		name      string
		gmv, cost int64
		want      ProfitStatus
	}{
		{"just below break even", 999_999, 1_000_000, ProfitLoss},
		{"break even", 2_200, 2_200, ProfitBreakEven},
		{"just above break even", 2_201, 2_200, ProfitProfit},
		{"just below triple", 2_999_999, 1_000_000, ProfitProfit},
		{"exactly triple", 6_600, 2_200, ProfitHighProfit},
		{"zero cost", 10_000, 0, ProfitLoss},
		{"zero gmv", 0, 100, ProfitLoss},
		{"huge cost does not overflow", math.MaxInt64 - 1, math.MaxInt64 / 2, ProfitProfit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyProfit(tc.gmv, tc.cost); got != tc.want {
				t.Fatalf("ClassifyProfit(%d, %d) = %s, want %s", tc.gmv, tc.cost, got, tc.want)
			}
			if tc.cost > 0 && tc.cost < 1<<40 {
				roi := float64(tc.gmv) / float64(tc.cost)
				if got := ProfitStatusForROI(roi); got != tc.want {
					t.Fatalf("float classification %s disagrees with exact %s", got, tc.want)
				}
			}
		})
	}
}

func TestEvaluateResultZeroCostYieldsZeroROI(t *testing.T) {
	out, err := EvaluateResult(ResultInput{SalesGmv: 50_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TotalCollaborationCost != 0 {
		t.Fatalf("expected zero cost, got %d", out.TotalCollaborationCost)
	}
	if out.ROI != 0 {
		t.Fatalf("expected ROI 0, got %v", out.ROI)
	}
	if out.ProfitStatus != ProfitLoss {
		t.Fatalf("expected LOSS, got %s", out.ProfitStatus)
	}
}

func TestEvaluateResultRoundsROIToFourPlaces(t *testing.T) {
	out, err := EvaluateResult(ResultInput{
		TotalSampleCost:  1_700,
		PitFee:           0,
		ActualCommission: 500,
		SalesGmv:         10_000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TotalCollaborationCost != 2_200 {
		t.Fatalf("expected total cost 2200, got %d", out.TotalCollaborationCost)
	}
	if out.ROI != 4.5455 {
		t.Fatalf("expected ROI 4.5455, got %v", out.ROI)
	}
	if out.ProfitStatus != ProfitHighProfit {
		t.Fatalf("expected HIGH_PROFIT, got %s", out.ProfitStatus)
	}
}

func TestEvaluateResultRejectsOverflow(t *testing.T) {
	_, err := EvaluateResult(ResultInput{TotalSampleCost: math.MaxInt64, PitFee: 1})
	if err != ErrAmountOverflow {
		t.Fatalf("expected ErrAmountOverflow, got %v", err)
	}
}

func TestEvaluateResultStatusUsesExactAmounts(t *testing.T) {
	out, err := EvaluateResult(ResultInput{TotalSampleCost: 10000000, SalesGmv: 9999999})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// 0.9999999 rounds to 1.0000 but is still below cost.
	if out.ROI != 1 || out.ProfitStatus != ProfitLoss {
		t.Fatalf("expected rounded roi 1 with LOSS, got %v %s", out.ROI, out.ProfitStatus)
	}
}

func TestComputeROIFitsStoredPrecision(t *testing.T) {
	roi := ComputeROI(math.MaxInt64, 1)
	if roi >= 1e20 {
		t.Fatalf("roi %v exceeds 20 integer digits", roi)
	}
}
