package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Price latest oracle price of one asset in the base currency
type Price struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID   string          `sql:"size:36;unique_index:price_idx" json:"asset_id"`
	Price     decimal.Decimal `sql:"type:decimal(32,16)" json:"price"`
	Version   int64           `sql:"default:0" json:"version"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IPriceStore price store interface
type IPriceStore interface {
	Save(ctx context.Context, tx *db.DB, price *Price) error
	Find(ctx context.Context, assetID string) (*Price, error)
	All(ctx context.Context) ([]*Price, error)
}

// IPriceOracleService price oracle consumed by the risk engine
type IPriceOracleService interface {
	GetAssetPrice(ctx context.Context, assetID string) (decimal.Decimal, error)
}
