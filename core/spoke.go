package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Spoke an independent front end sharing hub liquidity. Carries the spoke
// wide liquidation policy.
type Spoke struct {
	ID      uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	SpokeID string `sql:"size:36;unique_index:spoke_idx" json:"spoke_id"`
	Name    string `sql:"size:64" json:"name"`

	// CloseFactor max fraction of a debt reserve one liquidation may repay.
	// A value >= 1 switches to target mode: repay whatever restores
	// TargetHealthFactor.
	CloseFactor             decimal.Decimal `sql:"type:decimal(20,8)" json:"close_factor"`
	TargetHealthFactor      decimal.Decimal `sql:"type:decimal(20,8)" json:"target_health_factor"`
	HealthFactorForMaxBonus decimal.Decimal `sql:"type:decimal(20,8)" json:"health_factor_for_max_bonus"`
	BonusGrowthFactor       decimal.Decimal `sql:"type:decimal(20,8)" json:"bonus_growth_factor"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// SpokeAsset per (asset, spoke) slice of the hub ledger with spoke caps.
type SpokeAsset struct {
	ID      uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	SpokeID string `sql:"size:36;unique_index:spoke_asset_idx" json:"spoke_id"`
	AssetID string `sql:"size:36;unique_index:spoke_asset_idx" json:"asset_id"`

	Active bool `sql:"default:1" json:"active"`
	// SupplyCap max supplied assets for this spoke, zero means unlimited
	SupplyCap decimal.Decimal `sql:"type:decimal(32,16)" json:"supply_cap"`
	// DrawCap max base debt assets for this spoke, zero means unlimited.
	// Enforced at borrow time only; accrual may push past it.
	DrawCap decimal.Decimal `sql:"type:decimal(32,16)" json:"draw_cap"`

	SuppliedShares decimal.Decimal `sql:"type:decimal(32,16)" json:"supplied_shares"`
	BaseDebtShares decimal.Decimal `sql:"type:decimal(32,16)" json:"base_debt_shares"`
	PremiumShares  decimal.Decimal `sql:"type:decimal(32,16)" json:"premium_shares"`
	PremiumOffset  decimal.Decimal `sql:"type:decimal(32,16)" json:"premium_offset"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ISpokeStore spoke store interface
type ISpokeStore interface {
	Create(ctx context.Context, tx *db.DB, spoke *Spoke) error
	Find(ctx context.Context, spokeID string) (*Spoke, error)
	All(ctx context.Context) ([]*Spoke, error)
	Update(ctx context.Context, tx *db.DB, spoke *Spoke) error
}

// ISpokeAssetStore spoke-asset link store interface
type ISpokeAssetStore interface {
	Create(ctx context.Context, tx *db.DB, link *SpokeAsset) error
	Find(ctx context.Context, spokeID, assetID string) (*SpokeAsset, error)
	FindByAsset(ctx context.Context, assetID string) ([]*SpokeAsset, error)
	Update(ctx context.Context, tx *db.DB, link *SpokeAsset) error
}
