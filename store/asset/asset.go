package asset

import (
	"context"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
)

type assetStore struct {
	db *db.DB
}

// New new asset store
func New(db *db.DB) core.IAssetStore {
	return &assetStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Asset{})
		if err := tx.AutoMigrate(core.Asset{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *assetStore) Create(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Update().Create(asset).Error
}

func (s *assetStore) Find(ctx context.Context, assetID string) (*core.Asset, error) {
	var asset core.Asset
	if err := s.db.View().Where("asset_id=?", assetID).First(&asset).Error; err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrAssetNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func (s *assetStore) All(ctx context.Context) ([]*core.Asset, error) {
	var assets []*core.Asset
	if err := s.db.View().Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (s *assetStore) Update(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	if tx == nil {
		tx = s.db
	}

	version := asset.Version
	asset.Version++
	update := tx.Update().Model(core.Asset{}).Where("asset_id=? and version=?", asset.AssetID, version).Update(asset)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}
