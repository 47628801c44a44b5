package worker

import (
	"context"
	"time"
)

// Worker a long running unit started by the worker command
type Worker interface {
	Run(ctx context.Context) error
}

// TickWorker embeds a fixed cadence loop into a worker. A tick that returns
// an error backs off to ErrDelay before the next attempt.
type TickWorker struct {
	Delay    time.Duration
	ErrDelay time.Duration
}

// StartTick run onTick until the context dies
func (w *TickWorker) StartTick(ctx context.Context, onTick func(ctx context.Context) error) error {
	delay := w.Delay
	if delay <= 0 {
		delay = time.Second
	}
	errDelay := w.ErrDelay
	if errDelay <= 0 {
		errDelay = 10 * time.Second
	}

	dur := time.Millisecond
	timer := time.NewTimer(dur)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := onTick(ctx); err != nil {
				dur = errDelay
			} else {
				dur = delay
			}
			timer.Reset(dur)
		}
	}
}
