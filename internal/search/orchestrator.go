// Package search runs one fetch-and-match task per company with bounded
// concurrency and collects the outcomes into a RunResult.
package search

import (
	"context"
	"log/slog"
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Orchestrator struct {
	runner   *Runner
	observer Observer
	newID    func() string
}

type Option func(*Orchestrator)

func WithObserver(obs ...Observer) Option {
	return func(o *Orchestrator) {
		o.observer = Observers(obs)
	}
}

// WithRunIDs replaces the uuid run id generator.
func WithRunIDs(newID func() string) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

func New(resolver Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runner:   NewRunner(resolver),
		observer: NopObserver{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every company with at most maxConcurrency tasks in flight.
// Companies are started in slice order and every one of them gets exactly
// one outcome, stored at its own index. Per company failures never become
// an error; the only error is a *ConfigError for invalid parameters.
//
// Cancelling ctx aborts the run: companies not yet started are recorded as
// cancelled and running ones race their deadline against ctx.
func (o *Orchestrator) Run(ctx context.Context, companies []domain.Company, targets []domain.TargetTitle, timeout time.Duration, maxConcurrency int) (RunResult, error) {
	if timeout <= 0 {
		return RunResult{}, &ConfigError{Field: "timeout", Reason: "must be positive, got " + timeout.String()}
	}
	if maxConcurrency <= 0 {
		return RunResult{}, &ConfigError{Field: "concurrency", Reason: "must be at least 1"}
	}

	res := RunResult{
		RunID:     o.newID(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]Outcome, len(companies)),
	}
	ctx = log.ContextAttrs(ctx, slog.String("run", res.RunID))
	slog.InfoContext(ctx, "run started",
		"companies", len(companies),
		"targets", len(targets),
		"timeout", timeout.String(),
		"concurrency", maxConcurrency,
	)
	o.observer.RunStarted(res.RunID, len(companies))

	var g errgroup.Group
	g.SetLimit(maxConcurrency)
	for i, co := range companies {
		// Go blocks while maxConcurrency tasks are running.
		g.Go(func() error {
			cctx := log.ContextAttrs(ctx,
				slog.String("company", co.Name),
				slog.String("adapter", co.Adapter),
			)
			var out Outcome
			if ctx.Err() != nil {
				out = interrupted(ctx, Outcome{Company: co.Name, Adapter: co.Adapter}, timeout)
			} else {
				o.observer.CompanyStarted(res.RunID, co)
				out = o.runner.Execute(cctx, co, targets, timeout)
			}
			logOutcome(cctx, out)
			res.Outcomes[i] = out
			o.observer.CompanyFinished(res.RunID, out)
			return nil
		})
	}
	_ = g.Wait()

	res.FinishedAt = time.Now().UTC()
	res.Counts = CountOutcomes(res.Outcomes)
	slog.InfoContext(ctx, "run finished",
		"succeeded", res.Counts.Succeeded,
		"failed", res.Counts.Failed,
		"timed_out", res.Counts.TimedOut,
		"cancelled", res.Counts.Cancelled,
		"matches", res.Counts.Matches,
		"elapsed", res.Duration().String(),
	)
	o.observer.RunFinished(res)
	return res, nil
}

func logOutcome(ctx context.Context, out Outcome) {
	switch out.Status {
	case StatusSuccess:
		slog.InfoContext(ctx, "company done",
			"fetched", out.Fetched,
			"matches", len(out.Matches),
			"elapsed", out.Elapsed.String(),
		)
	default:
		slog.WarnContext(ctx, "company "+string(out.Status),
			"kind", out.Error.Kind,
			"error", out.Error.Message,
			"elapsed", out.Elapsed.String(),
		)
	}
}
