// Package vault moves the underlying token between user balances and the
// pool. The engine stages the ledger math; the vault is where the actual
// funds check happens, inside the same transaction.
package vault

import (
	"context"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"

	"lendhub/core"
)

type transferService struct {
	vaults core.IVaultStore
}

// New new transfer service
func New(vaults core.IVaultStore) core.ITransferService {
	return &transferService{vaults: vaults}
}

func (s *transferService) TransferFrom(ctx context.Context, tx *db.DB, userID, assetID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	balance, err := s.vaults.Find(ctx, userID, assetID)
	if err != nil {
		return err
	}

	if balance.Balance.LessThan(amount) {
		return core.WithLimit(core.ErrInsufficientFunds, balance.Balance)
	}

	balance.Balance = balance.Balance.Sub(amount)
	return s.vaults.Save(ctx, tx, balance)
}

func (s *transferService) Transfer(ctx context.Context, tx *db.DB, userID, assetID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	balance, err := s.vaults.Find(ctx, userID, assetID)
	if err != nil {
		return err
	}

	balance.Balance = balance.Balance.Add(amount)
	return s.vaults.Save(ctx, tx, balance)
}
