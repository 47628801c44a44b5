// Package premium computes a borrower's personal risk premium: the value
// weighted average of the liquidity premiums of the cheapest collateral
// sufficient to cover the debt.
package premium

import (
	"sort"

	"github.com/shopspring/decimal"

	"lendhub/pkg/number"
)

// Collateral one reserve the user has flagged as collateral, valued in the
// base currency.
type Collateral struct {
	ReserveID string
	Value     decimal.Decimal
	Premium   decimal.Decimal
}

// Waterfall ascending-premium coverage. Collateral is consumed cheapest
// premium first until the running sum reaches debtValue; the crossing
// reserve contributes only the fraction still needed and anything beyond it
// contributes nothing. When collateral cannot cover the debt everything
// contributes in full. The result is independent of input order.
func Waterfall(collaterals []Collateral, debtValue decimal.Decimal) decimal.Decimal {
	if !debtValue.IsPositive() {
		return decimal.Zero
	}

	sorted := make([]Collateral, 0, len(collaterals))
	for _, c := range collaterals {
		if c.Value.IsPositive() {
			sorted = append(sorted, c)
		}
	}

	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Premium.Equal(sorted[j].Premium) {
			return sorted[i].Premium.LessThan(sorted[j].Premium)
		}
		return sorted[i].ReserveID < sorted[j].ReserveID
	})

	remaining := debtValue
	consumed := decimal.Zero
	weighted := decimal.Zero

	for _, c := range sorted {
		take := decimal.Min(c.Value, remaining)
		consumed = consumed.Add(take)
		weighted = weighted.Add(take.Mul(c.Premium))
		remaining = remaining.Sub(take)

		if !remaining.IsPositive() {
			break
		}
	}

	if !consumed.IsPositive() {
		return decimal.Zero
	}

	return weighted.DivRound(consumed, number.WorkPrecision)
}
