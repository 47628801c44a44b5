package core

import (
	"github.com/shopspring/decimal"
)

// MaxAmount sentinel meaning "the full balance / full debt"
var MaxAmount = decimal.New(1, 32)

// IsMaxAmount true when amount is the full-balance sentinel
func IsMaxAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(MaxAmount)
}
