package spoke

import (
	"context"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
)

type spokeStore struct {
	db *db.DB
}

// New new spoke store
func New(db *db.DB) core.ISpokeStore {
	return &spokeStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Spoke{})
		if err := tx.AutoMigrate(core.Spoke{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *spokeStore) Create(ctx context.Context, tx *db.DB, spoke *core.Spoke) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Update().Create(spoke).Error
}

func (s *spokeStore) Find(ctx context.Context, spokeID string) (*core.Spoke, error) {
	var spoke core.Spoke
	if err := s.db.View().Where("spoke_id=?", spokeID).First(&spoke).Error; err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrSpokeNotFound
		}
		return nil, err
	}
	return &spoke, nil
}

func (s *spokeStore) All(ctx context.Context) ([]*core.Spoke, error) {
	var spokes []*core.Spoke
	if err := s.db.View().Find(&spokes).Error; err != nil {
		return nil, err
	}
	return spokes, nil
}

func (s *spokeStore) Update(ctx context.Context, tx *db.DB, spoke *core.Spoke) error {
	if tx == nil {
		tx = s.db
	}

	version := spoke.Version
	spoke.Version++
	update := tx.Update().Model(core.Spoke{}).Where("spoke_id=? and version=?", spoke.SpokeID, version).Update(spoke)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}
