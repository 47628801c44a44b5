package number

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCeilFloor(t *testing.T) {
	d := Decimal("1.00000000000000001")

	assert.True(t, Ceil(d, WorkPrecision).GreaterThan(decimal.New(1, 0)))
	assert.True(t, Floor(d, WorkPrecision).Equal(decimal.New(1, 0)))
}

func TestDivRoundsAgainstCaller(t *testing.T) {
	amount := Decimal("10")
	rate := Decimal("3")

	up := DivCeil(amount, rate)
	down := DivFloor(amount, rate)

	assert.True(t, up.GreaterThan(down))
	// the two differ by exactly one unit at working precision
	assert.True(t, up.Sub(down).Equal(decimal.New(1, -WorkPrecision)))
	// round trip never exceeds one unit of error
	assert.True(t, up.Mul(rate).Sub(amount).Abs().LessThanOrEqual(decimal.New(3, -WorkPrecision)))
}

func TestNonNegative(t *testing.T) {
	assert.True(t, NonNegative(Decimal("-0.0000000001")).IsZero())
	assert.True(t, NonNegative(Decimal("0.5")).Equal(Decimal("0.5")))
}
