package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// User a principal known to the ledger. Nonce backs delegated
// authorization: every verified delegated call consumes the next nonce.
type User struct {
	ID        uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	UserID    string    `sql:"size:36;unique_index:user_idx" json:"user_id"`
	PublicKey string    `sql:"size:128" json:"public_key,omitempty"`
	Nonce     int64     `sql:"default:0" json:"nonce"`
	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IUserStore user store interface
type IUserStore interface {
	Save(ctx context.Context, tx *db.DB, user *User) error
	Find(ctx context.Context, userID string) (*User, error)
	Update(ctx context.Context, tx *db.DB, user *User) error
}
