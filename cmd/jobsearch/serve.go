package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/httpapi"
	"jobsearch-engine/internal/log"
	"jobsearch-engine/internal/metrics"
	"jobsearch-engine/internal/scheduler"
	"jobsearch-engine/internal/service"

	"github.com/spf13/cobra"
)

func doServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	ctx = log.ContextAttrs(ctx, slog.Group("jobsearch",
		slog.String("cmd", "serve"),
		slog.Int("pid", os.Getpid()),
	))

	p, err := paths()
	if err != nil {
		return err
	}
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	hub := events.NewHub()
	defer hub.Close()
	pub := events.Publisher{Hub: hub}
	m := metrics.New().WithRuntime()
	deps := httpapi.Deps{Hub: hub, Metrics: m.Handler(), BaseContext: ctx}
	if db != nil {
		m.WithHistory(db.Pool)
		deps.DB = db.Pool
	}

	svc := service.New(options(p), newRegistry(), db, m, pub)
	deps.Runs = svc

	var wg sync.WaitGroup
	if flagInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Every(ctx, flagInterval, "scheduled run", func(ctx context.Context) error {
				rep, err := svc.RunOnce(ctx)
				if errors.Is(err, service.ErrRunning) {
					slog.InfoContext(ctx, "run triggered over HTTP still in progress, skipping")
					return nil
				}
				if rep.Result.RunID != "" {
					pub.RunSaved(rep.Result.RunID, rep.NewMatches, rep.Dir)
				}
				return err
			})
		}()
	}

	err = httpapi.Serve(ctx, flagAddr, httpapi.NewHandler(deps))
	cancel()
	wg.Wait()
	svc.Wait()
	return err
}
