package pricefeed

import (
	"context"
	"time"

	"github.com/fox-one/pkg/logger"

	"lendhub/core"
	"lendhub/service/oracle"
	"lendhub/worker"
)

// Worker pulls quotes from the external feed and persists them so the
// risk engine always values against a recent price.
type Worker struct {
	worker.TickWorker
	feed   *oracle.FeedClient
	prices core.IPriceStore
}

// New new pricefeed worker polling the feed every interval
func New(feed *oracle.FeedClient, prices core.IPriceStore, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &Worker{
		TickWorker: worker.TickWorker{
			Delay:    interval,
			ErrDelay: time.Minute,
		},
		feed:   feed,
		prices: prices,
	}
}

// Run run worker
func (w *Worker) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "pricefeed")

	quotes, err := w.feed.Fetch(ctx)
	if err != nil {
		log.WithError(err).Errorln("feed.Fetch")
		return err
	}

	for _, quote := range quotes {
		if !quote.Price.IsPositive() {
			log.Warningln("skip non positive quote:", quote.AssetID)
			continue
		}

		price := core.Price{
			AssetID:   quote.AssetID,
			Price:     quote.Price,
			UpdatedAt: time.Now(),
		}
		if err := w.prices.Save(ctx, nil, &price); err != nil {
			log.WithError(err).Errorln("prices.Save", quote.AssetID)
			return err
		}
	}

	return nil
}
