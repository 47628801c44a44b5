package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Reserve a listing of one asset on one spoke. The same asset may be listed
// several times, on one spoke or many, each with its own risk parameters.
type Reserve struct {
	ID        uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	ReserveID string `sql:"size:36;unique_index:reserve_idx" json:"reserve_id"`
	SpokeID   string `sql:"size:36;index:idx_reserves_spoke" json:"spoke_id"`
	AssetID   string `sql:"size:36;index:idx_reserves_asset" json:"asset_id"`
	Symbol    string `sql:"size:20" json:"symbol"`

	Paused     bool `sql:"default:0" json:"paused"`
	Frozen     bool `sql:"default:0" json:"frozen"`
	Borrowable bool `sql:"default:1" json:"borrowable"`

	// LiquidityPremium extra borrow rate charged to borrowers who use this
	// reserve as collateral. Collateral quality sets the spread.
	LiquidityPremium decimal.Decimal `sql:"type:decimal(20,8)" json:"liquidity_premium"`

	// CurrentVersion points at the latest dynamic config
	CurrentVersion int64 `sql:"default:0" json:"current_version"`

	SuppliedShares decimal.Decimal `sql:"type:decimal(32,16)" json:"supplied_shares"`
	BaseDebtShares decimal.Decimal `sql:"type:decimal(32,16)" json:"base_debt_shares"`
	PremiumShares  decimal.Decimal `sql:"type:decimal(32,16)" json:"premium_shares"`
	PremiumOffset  decimal.Decimal `sql:"type:decimal(32,16)" json:"premium_offset"`

	LastUpdate time.Time `json:"last_update"`
	Version    int64     `sql:"default:0" json:"version"`
	CreatedAt  time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// DynamicConfig one appended version of a reserve's dynamic risk parameters.
// Versions are append only; positions pin the version they last touched.
type DynamicConfig struct {
	ID        uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	ReserveID string `sql:"size:36;unique_index:dyncfg_idx" json:"reserve_id"`
	Ver       int64  `sql:"unique_index:dyncfg_idx" json:"ver"`

	CollateralFactor    decimal.Decimal `sql:"type:decimal(20,8)" json:"collateral_factor"`
	MinLiquidationBonus decimal.Decimal `sql:"type:decimal(20,8)" json:"min_liquidation_bonus"`
	MaxLiquidationBonus decimal.Decimal `sql:"type:decimal(20,8)" json:"max_liquidation_bonus"`
	LiquidationFee      decimal.Decimal `sql:"type:decimal(20,8)" json:"liquidation_fee"`

	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// IReserveStore reserve store interface
type IReserveStore interface {
	Create(ctx context.Context, tx *db.DB, reserve *Reserve) error
	Find(ctx context.Context, reserveID string) (*Reserve, error)
	FindBySpoke(ctx context.Context, spokeID string) ([]*Reserve, error)
	All(ctx context.Context) ([]*Reserve, error)
	Update(ctx context.Context, tx *db.DB, reserve *Reserve) error

	CreateConfig(ctx context.Context, tx *db.DB, cfg *DynamicConfig) error
	FindConfig(ctx context.Context, reserveID string, ver int64) (*DynamicConfig, error)
	ListConfigs(ctx context.Context, reserveID string) ([]*DynamicConfig, error)
}
