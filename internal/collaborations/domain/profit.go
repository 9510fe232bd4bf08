package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// ProfitStatus buckets a collaboration's return on cost.
type ProfitStatus string

const (
	ProfitLoss       ProfitStatus = "LOSS"
	ProfitBreakEven  ProfitStatus = "BREAK_EVEN"
	ProfitProfit     ProfitStatus = "PROFIT"
	ProfitHighProfit ProfitStatus = "HIGH_PROFIT"
)

// highProfitMultiple is the ROI at and above which a result counts as HIGH_PROFIT.
const highProfitMultiple = 3

// roiPlaces is the precision ROI is stored and reported with.
const roiPlaces = 4

// ProfitStatusForROI classifies an already computed ROI.
func ProfitStatusForROI(roi float64) ProfitStatus {
	switch {
	case roi < 1:
		return ProfitLoss
	case roi == 1:
		return ProfitBreakEven
	case roi < highProfitMultiple:
		return ProfitProfit
	default:
		return ProfitHighProfit
	}
}

// ClassifyProfit classifies gmv against cost without going through floating point,
// so the boundaries are exact for any cent amounts. Zero cost means ROI 0, a LOSS.
func ClassifyProfit(gmv, cost int64) ProfitStatus {
	if cost <= 0 {
		return ProfitLoss
	}
	switch {
	case gmv < cost:
		return ProfitLoss
	case gmv == cost:
		return ProfitBreakEven
	case cost > math.MaxInt64/highProfitMultiple || gmv < cost*highProfitMultiple:
		return ProfitProfit
	default:
		return ProfitHighProfit
	}
}

// ComputeROI returns gmv / cost rounded to four places, or 0 when cost is not positive.
func ComputeROI(gmv, cost int64) float64 {
	if cost <= 0 {
		return 0
	}
	return decimal.NewFromInt(gmv).
		DivRound(decimal.NewFromInt(cost), roiPlaces).
		InexactFloat64()
}

// ResultInput carries the money fields of a collaboration result, in cents.
type ResultInput struct {
	TotalSampleCost  int64
	PitFee           int64
	ActualCommission int64
	SalesGmv         int64
}

// ResultOutcome holds the derived financial fields of a result.
type ResultOutcome struct {
	TotalSampleCost        int64
	TotalCollaborationCost int64
	ROI                    float64
	ProfitStatus           ProfitStatus
}

// EvaluateResult derives cost, ROI and profit status. It is the only place these are computed,
// so creating and updating a result always agree.
func EvaluateResult(in ResultInput) (ResultOutcome, error) {
	cost, err := SumCents(in.TotalSampleCost, in.PitFee, in.ActualCommission)
	if err != nil {
		return ResultOutcome{}, err
	}
	return ResultOutcome{
		TotalSampleCost:        in.TotalSampleCost,
		TotalCollaborationCost: cost,
		ROI:                    ComputeROI(in.SalesGmv, cost),
		ProfitStatus:           ClassifyProfit(in.SalesGmv, cost),
	}, nil
}
