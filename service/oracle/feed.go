package oracle

import (
	"context"

	"github.com/shopspring/decimal"

	"lendhub/pkg/resthttp"
)

// Quote one priced asset from the external feed
type Quote struct {
	AssetID string          `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
}

// FeedClient pulls quotes from the configured price endpoint
type FeedClient struct {
	endpoint string
}

// NewFeedClient new feed client
func NewFeedClient(endpoint string) *FeedClient {
	return &FeedClient{endpoint: endpoint}
}

// Fetch all quotes the feed currently knows
func (c *FeedClient) Fetch(ctx context.Context) ([]Quote, error) {
	resp, err := resthttp.Request(ctx).Get(c.endpoint)
	if err != nil {
		return nil, err
	}

	var quotes []Quote
	if err := resthttp.ParseResponse(resp, &quotes); err != nil {
		return nil, err
	}

	return quotes, nil
}
