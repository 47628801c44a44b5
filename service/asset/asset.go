package asset

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"lendhub/core"
	"lendhub/pkg/number"
)

type assetService struct{}

// New new asset service
func New() core.IAssetService {
	return &assetService{}
}

// Accrue realizes simple interest for the time elapsed since the last
// update. The borrow index grows gross; the supply index grows net of the
// protocol fee, which is minted to the treasury as supply shares so the
// pooled totals stay conserved. LastUpdate only advances when the computed
// interest is non zero.
func (s *assetService) Accrue(ctx context.Context, a *core.Asset, at time.Time) error {
	if !a.SupplyIndex.IsPositive() {
		a.SupplyIndex = decimal.New(1, 0)
	}
	if !a.BorrowIndex.IsPositive() {
		a.BorrowIndex = decimal.New(1, 0)
	}

	if a.LastUpdate.IsZero() {
		a.LastUpdate = at
		return nil
	}

	elapsed := at.Unix() - a.LastUpdate.Unix()
	if elapsed <= 0 {
		return nil
	}

	factor := a.InterestModel().AccrualFactor(a.Utilization(), elapsed)
	indexDelta := a.BorrowIndex.Mul(factor).Truncate(number.WorkPrecision)

	debtShares := a.TotalBaseDebtShares.Add(a.TotalPremiumShares)
	interest := debtShares.Mul(indexDelta).Truncate(number.WorkPrecision)
	if !interest.IsPositive() {
		return nil
	}

	a.BorrowIndex = a.BorrowIndex.Add(indexDelta)

	fee := number.MulFloor(interest, a.ProtocolFeeRate)
	supplied := a.TotalSuppliedAssets()
	if supplied.IsPositive() {
		netFactor := interest.Sub(fee).DivRound(supplied, number.WorkPrecision+2)
		a.SupplyIndex = number.Floor(a.SupplyIndex.Mul(decimal.New(1, 0).Add(netFactor)), number.WorkPrecision)

		if fee.IsPositive() {
			feeShares := number.DivFloor(fee, a.SupplyIndex)
			a.TreasuryShares = a.TreasuryShares.Add(feeShares)
			a.TotalSuppliedShares = a.TotalSuppliedShares.Add(feeShares)
		}
	}

	a.LastUpdate = at
	return nil
}
