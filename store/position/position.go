package position

import (
	"context"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
)

type positionStore struct {
	db *db.DB
}

// New new position store
func New(db *db.DB) core.IPositionStore {
	return &positionStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Position{})
		if err := tx.AutoMigrate(core.Position{}).Error; err != nil {
			return err
		}

		if err := tx.AddIndex("idx_positions_user", "user_id").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *positionStore) Save(ctx context.Context, tx *db.DB, position *core.Position) error {
	if tx == nil {
		tx = s.db
	}

	if position.ID == 0 {
		return tx.Update().Create(position).Error
	}

	version := position.Version
	position.Version++
	update := tx.Update().Model(core.Position{}).Where("id=? and version=?", position.ID, version).Update(position)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}

func (s *positionStore) Find(ctx context.Context, reserveID, userID string) (*core.Position, error) {
	var position core.Position
	err := s.db.View().Where("reserve_id=? and user_id=?", reserveID, userID).First(&position).Error
	if store.IsErrNotFound(err) {
		return &core.Position{ReserveID: reserveID, UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (s *positionStore) FindByUser(ctx context.Context, userID string) ([]*core.Position, error) {
	var positions []*core.Position
	if err := s.db.View().Where("user_id=?", userID).Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *positionStore) FindByReserve(ctx context.Context, reserveID string) ([]*core.Position, error) {
	var positions []*core.Position
	if err := s.db.View().Where("reserve_id=?", reserveID).Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *positionStore) Users(ctx context.Context) ([]string, error) {
	var users []string
	if err := s.db.View().Model(core.Position{}).Pluck("distinct user_id", &users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *positionStore) Delete(ctx context.Context, tx *db.DB, position *core.Position) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Update().Where("id=?", position.ID).Delete(core.Position{}).Error
}
