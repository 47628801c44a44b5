package price

import (
	"context"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"

	"lendhub/core"
)

type priceStore struct {
	db *db.DB
}

// New new price store
func New(db *db.DB) core.IPriceStore {
	return &priceStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Price{})
		if err := tx.AutoMigrate(core.Price{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *priceStore) Save(ctx context.Context, tx *db.DB, price *core.Price) error {
	if tx == nil {
		tx = s.db
	}

	if price.ID == 0 {
		var existing core.Price
		err := tx.View().Where("asset_id=?", price.AssetID).First(&existing).Error
		if err != nil && !gorm.IsRecordNotFoundError(err) {
			return err
		}
		if existing.ID == 0 {
			return tx.Update().Create(price).Error
		}
		price.ID = existing.ID
		price.Version = existing.Version
	}

	version := price.Version
	price.Version++
	update := tx.Update().Model(core.Price{}).Where("id=? and version=?", price.ID, version).Update(price)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}

func (s *priceStore) Find(ctx context.Context, assetID string) (*core.Price, error) {
	var price core.Price
	if err := s.db.View().Where("asset_id=?", assetID).First(&price).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, core.ErrInvalidPrice
		}
		return nil, err
	}
	return &price, nil
}

func (s *priceStore) All(ctx context.Context) ([]*core.Price, error) {
	var prices []*core.Price
	if err := s.db.View().Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}
