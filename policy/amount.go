// Package policy holds the pure validation rules consumed by the ledger
// engine: monetary amount limits, funding-instrument checks and description
// sanitization. Nothing in this package touches storage.
package policy

import (
	"errors"
	"math"
)

const (
	// MinAmount is the smallest deposit accepted, one cent.
	MinAmount = 0.01
	// MaxAmount is the largest single deposit accepted.
	MaxAmount = 10000.00
)

var (
	ErrAmountNotANumber   = errors.New("amount is not a valid number")
	ErrAmountBelowMinimum = errors.New("amount below minimum of 0.01")
	ErrAmountAboveMaximum = errors.New("amount above maximum of 10000.00")
)

// RoundCents rounds to two decimal places, half away from zero. The same rule
// is applied at amount normalization and balance aggregation so the two can
// never drift apart.
func RoundCents(x float64) float64 {
	return math.Round(x*100) / 100
}

// ValidateAmount normalizes a raw amount to cents and checks it against the
// deposit limits. The returned value is the amount to persist.
func ValidateAmount(raw float64) (float64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, ErrAmountNotANumber
	}

	amount := RoundCents(raw)
	if amount < MinAmount {
		return 0, ErrAmountBelowMinimum
	}
	if amount > MaxAmount {
		return 0, ErrAmountAboveMaximum
	}
	return amount, nil
}
