// Package oracle serves asset prices to the risk engine from the price
// store, refusing anything stale, and pulls fresh quotes from the external
// feed.
package oracle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"lendhub/core"
)

type priceService struct {
	prices core.IPriceStore
	maxAge time.Duration
}

// New new price oracle service. Prices older than maxAge are refused; a
// ledger action must not execute against a dead feed.
func New(prices core.IPriceStore, maxAge time.Duration) core.IPriceOracleService {
	return &priceService{prices: prices, maxAge: maxAge}
}

func (s *priceService) GetAssetPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	price, err := s.prices.Find(ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	if !price.Price.IsPositive() {
		return decimal.Zero, core.ErrInvalidPrice
	}

	if s.maxAge > 0 && time.Since(price.UpdatedAt) > s.maxAge {
		return decimal.Zero, core.ErrInvalidPrice
	}

	return price.Price, nil
}
