package price

import (
	"context"
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"github.com/fox-one/pkg/store/db"
	"golang.org/x/sync/singleflight"

	"lendhub/core"
)

// Cache wraps a price store with a short lived read cache; the risk engine
// reads the same handful of prices on every action.
func Cache(store core.IPriceStore, exp time.Duration) core.IPriceStore {
	return &cachePriceStore{
		IPriceStore: store,
		cache:       gcache.New(512).LRU().Expiration(exp).Build(),
		sf:          &singleflight.Group{},
	}
}

type cachePriceStore struct {
	core.IPriceStore
	cache gcache.Cache
	sf    *singleflight.Group
}

func (s *cachePriceStore) Save(ctx context.Context, tx *db.DB, price *core.Price) error {
	if err := s.IPriceStore.Save(ctx, tx, price); err != nil {
		return err
	}
	s.cache.Set(s.priceKey(price.AssetID), price)
	return nil
}

func (s *cachePriceStore) Find(ctx context.Context, assetID string) (*core.Price, error) {
	if v, err := s.cache.Get(s.priceKey(assetID)); err == nil {
		if price, ok := v.(*core.Price); ok {
			return price, nil
		}
	}

	v, err, _ := s.sf.Do(s.priceKey(assetID), func() (interface{}, error) {
		price, err := s.IPriceStore.Find(ctx, assetID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(s.priceKey(assetID), price)
		return price, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Price), nil
}

func (s *cachePriceStore) priceKey(assetID string) string {
	return fmt.Sprintf("price:%s", assetID)
}
