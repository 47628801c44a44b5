package sentinel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"

	"lendhub/core"
	"lendhub/pkg/concurrency"
	"lendhub/service/account"
	"lendhub/worker"
)

const checkpointKey = "sentinel_checkpoint"

// Worker scans every account with open positions and reports the ones
// below the liquidation threshold. It only observes; liquidators act.
type Worker struct {
	worker.TickWorker
	positions core.IPositionStore
	accountz  account.IAccountService
	property  property.Store
	interval  time.Duration
}

// New new sentinel worker
func New(
	positions core.IPositionStore,
	accountz account.IAccountService,
	propertyStr property.Store,
	interval time.Duration,
) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Worker{
		TickWorker: worker.TickWorker{
			Delay:    10 * time.Second,
			ErrDelay: 30 * time.Second,
		},
		positions: positions,
		accountz:  accountz,
		property:  propertyStr,
		interval:  interval,
	}
}

// Run run worker
func (w *Worker) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "sentinel")

	v, err := w.property.Get(ctx, checkpointKey)
	if err != nil {
		log.WithError(err).Errorln("property.Get", checkpointKey)
		return err
	}

	if last := v.Time(); time.Since(last) < w.interval {
		return nil
	}

	users, err := w.positions.Users(ctx)
	if err != nil {
		log.WithError(err).Errorln("positions.Users")
		return err
	}

	var unhealthy int64
	limit := concurrency.NewGoLimit(16)
	wg := sync.WaitGroup{}
	for _, userID := range users {
		limit.Add()
		wg.Add(1)

		go func(userID string) {
			defer wg.Done()
			defer limit.Done()

			acc, e := w.accountz.GetAccount(ctx, userID)
			if e != nil {
				log.WithError(e).Errorln("accountz.GetAccount", userID)
				return
			}

			if acc.DebtValue.IsPositive() && acc.HealthFactor.LessThan(account.Threshold) {
				atomic.AddInt64(&unhealthy, 1)
				log.WithField("user", userID).
					WithField("health_factor", acc.HealthFactor).
					WithField("debt_value", acc.DebtValue).
					Infoln("account below threshold")
			}
		}(userID)
	}
	wg.Wait()

	if unhealthy > 0 {
		log.Infof("scanned %d accounts, %d below threshold", len(users), unhealthy)
	}

	if err := w.property.Save(ctx, checkpointKey, time.Now()); err != nil {
		log.WithError(err).Errorln("property.Save", checkpointKey)
		return err
	}

	return nil
}
