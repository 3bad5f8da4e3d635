// Package trading executes simulated trades: cash deposits, buys and sells
// against an account's balance, and whole-balance investment of a model
// portfolio. All cash arithmetic is done in integer minor units.
package trading

import "github.com/bobmcallan/advisor/internal/models"

// Allocation is one instrument's share of an allocated cash amount.
type Allocation struct {
	InstrumentID string
	AmountCents  int64
}

// Allocate splits totalCents across the targets by percentage. Each target
// gets floor(totalCents * percentage / 100); the rounding remainder goes
// entirely to the single largest-percentage target (first on tie), so the
// amounts always sum exactly to totalCents and the rounding error lands in
// the largest position instead of spreading across small ones.
//
// Percentages are assumed to sum to 100; the function does not enforce it.
func Allocate(totalCents int64, targets []models.AllocationTarget) []Allocation {
	if len(targets) == 0 {
		return nil
	}

	allocations := make([]Allocation, len(targets))
	var allocated int64
	largest := 0
	for i, target := range targets {
		amount := totalCents * target.Percentage / 100
		allocations[i] = Allocation{
			InstrumentID: target.Instrument.ID,
			AmountCents:  amount,
		}
		allocated += amount
		if target.Percentage > targets[largest].Percentage {
			largest = i
		}
	}

	allocations[largest].AmountCents += totalCents - allocated
	return allocations
}
