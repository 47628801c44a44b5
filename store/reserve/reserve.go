package reserve

import (
	"context"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
)

type reserveStore struct {
	db *db.DB
}

// New new reserve store
func New(db *db.DB) core.IReserveStore {
	return &reserveStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		if err := db.Update().Model(core.Reserve{}).AutoMigrate(core.Reserve{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.DynamicConfig{}).AutoMigrate(core.DynamicConfig{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *reserveStore) Create(ctx context.Context, tx *db.DB, reserve *core.Reserve) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Update().Create(reserve).Error
}

func (s *reserveStore) Find(ctx context.Context, reserveID string) (*core.Reserve, error) {
	var reserve core.Reserve
	if err := s.db.View().Where("reserve_id=?", reserveID).First(&reserve).Error; err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrReserveNotFound
		}
		return nil, err
	}
	return &reserve, nil
}

func (s *reserveStore) FindBySpoke(ctx context.Context, spokeID string) ([]*core.Reserve, error) {
	var reserves []*core.Reserve
	if err := s.db.View().Where("spoke_id=?", spokeID).Find(&reserves).Error; err != nil {
		return nil, err
	}
	return reserves, nil
}

func (s *reserveStore) All(ctx context.Context) ([]*core.Reserve, error) {
	var reserves []*core.Reserve
	if err := s.db.View().Find(&reserves).Error; err != nil {
		return nil, err
	}
	return reserves, nil
}

func (s *reserveStore) Update(ctx context.Context, tx *db.DB, reserve *core.Reserve) error {
	if tx == nil {
		tx = s.db
	}

	version := reserve.Version
	reserve.Version++
	update := tx.Update().Model(core.Reserve{}).Where("reserve_id=? and version=?", reserve.ReserveID, version).Update(reserve)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}

func (s *reserveStore) CreateConfig(ctx context.Context, tx *db.DB, cfg *core.DynamicConfig) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Update().Create(cfg).Error
}

func (s *reserveStore) FindConfig(ctx context.Context, reserveID string, ver int64) (*core.DynamicConfig, error) {
	var cfg core.DynamicConfig
	if err := s.db.View().Where("reserve_id=? and ver=?", reserveID, ver).First(&cfg).Error; err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrInvalidConfig
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *reserveStore) ListConfigs(ctx context.Context, reserveID string) ([]*core.DynamicConfig, error) {
	var cfgs []*core.DynamicConfig
	if err := s.db.View().Where("reserve_id=?", reserveID).Order("ver").Find(&cfgs).Error; err != nil {
		return nil, err
	}
	return cfgs, nil
}
