package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"

	"lendhub/pkg/interest"
	"lendhub/pkg/number"
)

// Asset hub level ledger for one underlying token. All balances are stored
// as shares; the two indexes are the share/asset exchange rates. The supply
// index grows with interest net of the protocol fee, the borrow index grows
// gross.
type Asset struct {
	ID      uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID string `sql:"size:36;unique_index:asset_idx" json:"asset_id"`
	Symbol  string `sql:"size:20;unique_index:symbol_idx" json:"symbol"`

	SupplyIndex decimal.Decimal `sql:"type:decimal(32,16);default:1" json:"supply_index"`
	BorrowIndex decimal.Decimal `sql:"type:decimal(32,16);default:1" json:"borrow_index"`

	TotalSuppliedShares decimal.Decimal `sql:"type:decimal(32,16)" json:"total_supplied_shares"`
	TotalBaseDebtShares decimal.Decimal `sql:"type:decimal(32,16)" json:"total_base_debt_shares"`
	TotalPremiumShares  decimal.Decimal `sql:"type:decimal(32,16)" json:"total_premium_shares"`
	PremiumOffset       decimal.Decimal `sql:"type:decimal(32,16)" json:"premium_offset"`

	// TreasuryShares protocol fee accumulated as supply shares,
	// included in TotalSuppliedShares
	TreasuryShares decimal.Decimal `sql:"type:decimal(32,16)" json:"treasury_shares"`
	// ProtocolFeeRate fraction of accrued interest withheld for the treasury
	ProtocolFeeRate decimal.Decimal `sql:"type:decimal(20,8)" json:"protocol_fee_rate"`
	// Deficit bad debt written off by liquidations, in asset units
	Deficit decimal.Decimal `sql:"type:decimal(32,16)" json:"deficit"`

	// kinked interest rate curve, per year
	BaseRate  decimal.Decimal `sql:"type:decimal(20,8)" json:"base_rate"`
	Slope     decimal.Decimal `sql:"type:decimal(20,8)" json:"slope"`
	JumpSlope decimal.Decimal `sql:"type:decimal(20,8)" json:"jump_slope"`
	Kink      decimal.Decimal `sql:"type:decimal(20,8)" json:"kink"`

	// LastUpdate only advances when accrued interest is non-zero
	LastUpdate time.Time `json:"last_update"`
	Version    int64     `sql:"default:0" json:"version"`
	CreatedAt  time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// InterestModel the asset's rate curve
func (a *Asset) InterestModel() interest.Model {
	return interest.Model{
		BaseRate:  a.BaseRate,
		Slope:     a.Slope,
		JumpSlope: a.JumpSlope,
		Kink:      a.Kink,
	}
}

// TotalSuppliedAssets pooled supply converted at the supply index
func (a *Asset) TotalSuppliedAssets() decimal.Decimal {
	return number.MulFloor(a.TotalSuppliedShares, a.SupplyIndex)
}

// TotalBaseDebtAssets pooled base debt converted at the borrow index
func (a *Asset) TotalBaseDebtAssets() decimal.Decimal {
	return number.MulCeil(a.TotalBaseDebtShares, a.BorrowIndex)
}

// TotalPremiumDebtAssets pooled premium debt
func (a *Asset) TotalPremiumDebtAssets() decimal.Decimal {
	return number.NonNegative(a.TotalPremiumShares.Mul(a.BorrowIndex).Sub(a.PremiumOffset).Truncate(number.WorkPrecision))
}

// TotalDebtAssets base plus premium plus written-off deficit. The deficit
// stays in the total so the liquidity the write-off burned is never lent or
// withdrawn twice.
func (a *Asset) TotalDebtAssets() decimal.Decimal {
	return a.TotalBaseDebtAssets().Add(a.TotalPremiumDebtAssets()).Add(a.Deficit)
}

// AvailableLiquidity supplied minus debt, never negative
func (a *Asset) AvailableLiquidity() decimal.Decimal {
	return number.NonNegative(a.TotalSuppliedAssets().Sub(a.TotalDebtAssets()))
}

// Utilization debt over supplied
func (a *Asset) Utilization() decimal.Decimal {
	return interest.Utilization(a.TotalSuppliedAssets(), a.TotalDebtAssets())
}

// IAssetStore asset store interface
type IAssetStore interface {
	Create(ctx context.Context, tx *db.DB, asset *Asset) error
	Find(ctx context.Context, assetID string) (*Asset, error)
	All(ctx context.Context) ([]*Asset, error)
	Update(ctx context.Context, tx *db.DB, asset *Asset) error
}

// IAssetService asset ledger interest accrual
type IAssetService interface {
	// Accrue realizes interest since asset.LastUpdate into the indexes and
	// the treasury. Mutates the model only; the caller persists.
	Accrue(ctx context.Context, asset *Asset, at time.Time) error
}
