package domain

import (
	"errors"
	"math"
)

// ErrAmountOverflow is returned when a cent total does not fit in int64.
var ErrAmountOverflow = errors.New("amount exceeds supported range")

// DispatchCost is the frozen cost of one sample shipment, in cents.
type DispatchCost struct {
	UnitCostSnapshot int64
	TotalSampleCost  int64
	TotalCost        int64
}

// ComputeDispatchCost prices a shipment from the sample's current unit cost.
// Callers validate quantity >= 1 and non-negative amounts first.
func ComputeDispatchCost(quantity int, unitCost, shippingCost int64) (DispatchCost, error) {
	sampleTotal, err := mulCents(int64(quantity), unitCost)
	if err != nil {
		return DispatchCost{}, err
	}
	total, err := addCents(sampleTotal, shippingCost)
	if err != nil {
		return DispatchCost{}, err
	}
	return DispatchCost{
		UnitCostSnapshot: unitCost,
		TotalSampleCost:  sampleTotal,
		TotalCost:        total,
	}, nil
}

// SumCents adds amounts with overflow detection.
func SumCents(amounts ...int64) (int64, error) {
	var total int64
	for _, a := range amounts {
		next, err := addCents(total, a)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}

func addCents(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

func mulCents(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/b != a {
		return 0, ErrAmountOverflow
	}
	return product, nil
}
