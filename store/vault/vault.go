package vault

import (
	"context"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
)

type vaultStore struct {
	db *db.DB
}

// New new vault store
func New(db *db.DB) core.IVaultStore {
	return &vaultStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.VaultBalance{})
		if err := tx.AutoMigrate(core.VaultBalance{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *vaultStore) Find(ctx context.Context, userID, assetID string) (*core.VaultBalance, error) {
	var balance core.VaultBalance
	err := s.db.View().Where("user_id=? and asset_id=?", userID, assetID).First(&balance).Error
	if store.IsErrNotFound(err) {
		return &core.VaultBalance{UserID: userID, AssetID: assetID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *vaultStore) Save(ctx context.Context, tx *db.DB, balance *core.VaultBalance) error {
	if tx == nil {
		tx = s.db
	}

	if balance.ID == 0 {
		return tx.Update().Create(balance).Error
	}

	version := balance.Version
	balance.Version++
	update := tx.Update().Model(core.VaultBalance{}).Where("id=? and version=?", balance.ID, version).Update(balance)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}
