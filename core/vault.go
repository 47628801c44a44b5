package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// VaultBalance external token balance of one user for one asset. The pool's
// own cash is derivable from the asset ledger; the vault only tracks what
// users can pay in or have been paid out.
type VaultBalance struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	UserID    string          `sql:"size:36;unique_index:vault_idx" json:"user_id"`
	AssetID   string          `sql:"size:36;unique_index:vault_idx" json:"asset_id"`
	Balance   decimal.Decimal `sql:"type:decimal(32,16)" json:"balance"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IVaultStore vault store interface. Find returns an empty model when no
// row exists.
type IVaultStore interface {
	Find(ctx context.Context, userID, assetID string) (*VaultBalance, error)
	Save(ctx context.Context, tx *db.DB, balance *VaultBalance) error
}

// ITransferService moves the real asset in and out of the pool
type ITransferService interface {
	// TransferFrom pulls amount of asset from the user into the pool
	TransferFrom(ctx context.Context, tx *db.DB, userID, assetID string, amount decimal.Decimal) error
	// Transfer pays amount of asset from the pool out to the user
	Transfer(ctx context.Context, tx *db.DB, userID, assetID string, amount decimal.Decimal) error
}
