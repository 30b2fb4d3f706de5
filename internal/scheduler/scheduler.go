package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task right away and then on every tick of interval until ctx
// is done. A tick that arrives while the previous invocation is still
// running is skipped. Every returns once ctx is done and the last
// invocation has finished.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	var (
		running atomic.Bool
		wg      sync.WaitGroup
	)
	defer wg.Wait()

	fire := func() {
		if !running.CompareAndSwap(false, true) {
			slog.WarnContext(ctx, "["+name+"] previous run still in progress, skipping tick")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer running.Store(false)
			if err := task(ctx); err != nil {
				slog.ErrorContext(ctx, "["+name+"] error", "error", err)
			}
		}()
	}

	fire()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fire()
		}
	}
}
