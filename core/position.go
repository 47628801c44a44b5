package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"

	"lendhub/pkg/number"
)

// Position the finest grained ledger entry, per (reserve, user).
//
// Premium debt owed is premiumShares * borrowIndex - premiumOffset. The
// offset lets a position's premium accrue at the rate observed on its last
// touch without retroactive rewrites: premiumShares is the user's risk
// premium rate times their base debt shares, so premium grows only with the
// interest portion of base debt.
type Position struct {
	ID        uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	ReserveID string `sql:"size:36;unique_index:position_idx" json:"reserve_id"`
	UserID    string `sql:"size:36;unique_index:position_idx" json:"user_id"`

	SuppliedShares decimal.Decimal `sql:"type:decimal(32,16)" json:"supplied_shares"`
	BaseDebtShares decimal.Decimal `sql:"type:decimal(32,16)" json:"base_debt_shares"`
	PremiumShares  decimal.Decimal `sql:"type:decimal(32,16)" json:"premium_shares"`
	PremiumOffset  decimal.Decimal `sql:"type:decimal(32,16)" json:"premium_offset"`

	UsingAsCollateral bool `sql:"default:0" json:"using_as_collateral"`
	// ConfigVersion dynamic config version this position is pinned to.
	// Advanced by every state changing user action except liquidation.
	ConfigVersion int64 `sql:"default:0" json:"config_version"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// SuppliedAssets converted at the supply index, rounded down
func (p *Position) SuppliedAssets(supplyIndex decimal.Decimal) decimal.Decimal {
	return number.MulFloor(p.SuppliedShares, supplyIndex)
}

// BaseDebtAssets converted at the borrow index, rounded up
func (p *Position) BaseDebtAssets(borrowIndex decimal.Decimal) decimal.Decimal {
	return number.MulCeil(p.BaseDebtShares, borrowIndex)
}

// PremiumDebtAssets premium owed so far
func (p *Position) PremiumDebtAssets(borrowIndex decimal.Decimal) decimal.Decimal {
	return number.NonNegative(p.PremiumShares.Mul(borrowIndex).Sub(p.PremiumOffset).Truncate(number.WorkPrecision))
}

// TotalDebtAssets base plus premium
func (p *Position) TotalDebtAssets(borrowIndex decimal.Decimal) decimal.Decimal {
	return p.BaseDebtAssets(borrowIndex).Add(p.PremiumDebtAssets(borrowIndex))
}

// Empty true when every balance is zero and the row can be reaped
func (p *Position) Empty(borrowIndex decimal.Decimal) bool {
	return p.SuppliedShares.IsZero() &&
		p.BaseDebtShares.IsZero() &&
		p.PremiumDebtAssets(borrowIndex).IsZero()
}

// IPositionStore position store interface. Find returns an empty model
// (ID == 0) when no row exists yet.
type IPositionStore interface {
	Save(ctx context.Context, tx *db.DB, position *Position) error
	Find(ctx context.Context, reserveID, userID string) (*Position, error)
	FindByUser(ctx context.Context, userID string) ([]*Position, error)
	FindByReserve(ctx context.Context, reserveID string) ([]*Position, error)
	Users(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, tx *db.DB, position *Position) error
}
