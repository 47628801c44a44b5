// Package interest implements the kinked borrow-rate curve shared by all
// asset ledgers. Rates are quoted per year and applied per second with
// simple (linear) interest.
package interest

import (
	"github.com/shopspring/decimal"

	"lendhub/pkg/number"
)

// SecondsPerYear 365 days
var SecondsPerYear = decimal.NewFromInt(31536000)

// Model kinked interest rate curve parameters, all per year.
// Below Kink the borrow rate grows along Slope, above it along JumpSlope.
type Model struct {
	BaseRate  decimal.Decimal `json:"base_rate" valid:"required"`
	Slope     decimal.Decimal `json:"slope" valid:"required"`
	JumpSlope decimal.Decimal `json:"jump_slope" valid:"required"`
	Kink      decimal.Decimal `json:"kink" valid:"required"`
}

// Utilization debt over supplied. Zero when nothing is supplied.
func Utilization(supplied, debt decimal.Decimal) decimal.Decimal {
	if supplied.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	return debt.DivRound(supplied, number.WorkPrecision)
}

// BorrowRate annual borrow rate at the given utilization.
func (m Model) BorrowRate(utilization decimal.Decimal) decimal.Decimal {
	if m.Kink.IsZero() || utilization.LessThanOrEqual(m.Kink) {
		return utilization.Mul(m.Slope).Add(m.BaseRate).Truncate(number.WorkPrecision)
	}

	normalRate := m.Kink.Mul(m.Slope).Add(m.BaseRate)
	excess := utilization.Sub(m.Kink)
	return excess.Mul(m.JumpSlope).Add(normalRate).Truncate(number.WorkPrecision)
}

// AccrualFactor simple interest factor for the elapsed seconds:
// borrowRate * elapsed / secondsPerYear.
func (m Model) AccrualFactor(utilization decimal.Decimal, elapsedSeconds int64) decimal.Decimal {
	if elapsedSeconds <= 0 {
		return decimal.Zero
	}

	rate := m.BorrowRate(utilization)
	return rate.Mul(decimal.NewFromInt(elapsedSeconds)).
		DivRound(SecondsPerYear, number.WorkPrecision)
}
