package number

import (
	"github.com/shopspring/decimal"
)

// WorkPrecision digits kept by intermediate ledger math
const WorkPrecision int32 = 16

func Decimal(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func Ceil(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Ceil().Shift(-precision)
}

func Floor(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Floor().Shift(-precision)
}

// DivCeil divides a by b rounding the quotient up at the working
// precision. Used when shares are minted against the caller.
func DivCeil(a, b decimal.Decimal) decimal.Decimal {
	return Ceil(a.DivRound(b, WorkPrecision+2), WorkPrecision)
}

// DivFloor divides a by b rounding the quotient down at the working
// precision. Used when assets are paid out.
func DivFloor(a, b decimal.Decimal) decimal.Decimal {
	return Floor(a.DivRound(b, WorkPrecision+2), WorkPrecision)
}

// MulCeil multiplies rounding up at the working precision.
func MulCeil(a, b decimal.Decimal) decimal.Decimal {
	return Ceil(a.Mul(b), WorkPrecision)
}

// MulFloor multiplies rounding down at the working precision.
func MulFloor(a, b decimal.Decimal) decimal.Decimal {
	return Floor(a.Mul(b), WorkPrecision)
}

// NonNegative clamps tiny negative rounding residue to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
