package user

import (
	"context"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
)

type userStore struct {
	db *db.DB
}

// New new user store
func New(db *db.DB) core.IUserStore {
	return &userStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.User{})
		if err := tx.AutoMigrate(core.User{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *userStore) Save(ctx context.Context, tx *db.DB, user *core.User) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Update().Where("user_id=?", user.UserID).FirstOrCreate(user).Error
}

func (s *userStore) Find(ctx context.Context, userID string) (*core.User, error) {
	var user core.User
	err := s.db.View().Where("user_id=?", userID).First(&user).Error
	if store.IsErrNotFound(err) {
		return &core.User{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userStore) Update(ctx context.Context, tx *db.DB, user *core.User) error {
	if tx == nil {
		tx = s.db
	}

	version := user.Version
	user.Version++
	update := tx.Update().Model(core.User{}).Where("user_id=? and version=?", user.UserID, version).Update(user)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}
