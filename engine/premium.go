package engine

import (
	"github.com/shopspring/decimal"

	"lendhub/core"
	"lendhub/pkg/number"
)

// applyPremium re-anchors a position's premium exposure to the risk premium
// rate in effect now. Premium accrued so far (minus anything just repaid) is
// preserved through the offset; future premium accrues as rate times the
// interest growth of the new base debt. Aggregates at the reserve, link and
// asset move by the same deltas so the nested ledgers stay in lockstep.
func (s *staging) applyPremium(
	pos *core.Position,
	reserve *core.Reserve,
	link *core.SpokeAsset,
	asset *core.Asset,
	rate decimal.Decimal,
	repaid decimal.Decimal,
) {
	index := asset.BorrowIndex

	accrued := number.NonNegative(pos.PremiumDebtAssets(index).Sub(repaid))

	newShares := rate.Mul(pos.BaseDebtShares).Truncate(number.WorkPrecision)
	newOffset := newShares.Mul(index).Sub(accrued).Truncate(number.WorkPrecision)

	dShares := newShares.Sub(pos.PremiumShares)
	dOffset := newOffset.Sub(pos.PremiumOffset)

	pos.PremiumShares = newShares
	pos.PremiumOffset = newOffset

	reserve.PremiumShares = reserve.PremiumShares.Add(dShares)
	reserve.PremiumOffset = reserve.PremiumOffset.Add(dOffset)
	link.PremiumShares = link.PremiumShares.Add(dShares)
	link.PremiumOffset = link.PremiumOffset.Add(dOffset)
	asset.TotalPremiumShares = asset.TotalPremiumShares.Add(dShares)
	asset.PremiumOffset = asset.PremiumOffset.Add(dOffset)
}
