package event

import (
	"context"

	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
)

type eventStore struct {
	db *db.DB
}

// New new event store
func New(db *db.DB) core.IEventStore {
	return &eventStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Event{})
		if err := tx.AutoMigrate(core.Event{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *eventStore) Create(ctx context.Context, tx *db.DB, event *core.Event) error {
	if tx == nil {
		tx = s.db
	}
	// trace id makes the write idempotent across retries
	return tx.Update().Where("trace_id=?", event.TraceID).FirstOrCreate(event).Error
}

func (s *eventStore) List(ctx context.Context, fromID uint64, limit int) ([]*core.Event, error) {
	var events []*core.Event
	if err := s.db.View().Where("id > ?", fromID).Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *eventStore) FindByUser(ctx context.Context, userID string, limit int) ([]*core.Event, error) {
	var events []*core.Event
	if err := s.db.View().Where("user_id=?", userID).Order("id desc").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
