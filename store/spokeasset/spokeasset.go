package spokeasset

import (
	"context"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
)

type spokeAssetStore struct {
	db *db.DB
}

// New new spoke-asset link store
func New(db *db.DB) core.ISpokeAssetStore {
	return &spokeAssetStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.SpokeAsset{})
		if err := tx.AutoMigrate(core.SpokeAsset{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *spokeAssetStore) Create(ctx context.Context, tx *db.DB, link *core.SpokeAsset) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Update().Create(link).Error
}

func (s *spokeAssetStore) Find(ctx context.Context, spokeID, assetID string) (*core.SpokeAsset, error) {
	var link core.SpokeAsset
	if err := s.db.View().Where("spoke_id=? and asset_id=?", spokeID, assetID).First(&link).Error; err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrSpokeAssetInactive
		}
		return nil, err
	}
	return &link, nil
}

func (s *spokeAssetStore) FindByAsset(ctx context.Context, assetID string) ([]*core.SpokeAsset, error) {
	var links []*core.SpokeAsset
	if err := s.db.View().Where("asset_id=?", assetID).Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (s *spokeAssetStore) Update(ctx context.Context, tx *db.DB, link *core.SpokeAsset) error {
	if tx == nil {
		tx = s.db
	}

	version := link.Version
	link.Version++
	update := tx.Update().Model(core.SpokeAsset{}).Where("spoke_id=? and asset_id=? and version=?", link.SpokeID, link.AssetID, version).Update(link)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}
