package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/report"
	"jobsearch-engine/internal/scrape"
	"jobsearch-engine/internal/search"
	"jobsearch-engine/internal/store"
)

// ErrRunning is returned by RunOnce while another run is in progress.
var ErrRunning = errors.New("a run is already in progress")

type Options struct {
	Paths       config.Paths
	OutputDir   string // no report files when empty
	Timeout     time.Duration
	Concurrency int
	// KeepHistory prunes stored runs older than this; zero keeps all.
	KeepHistory time.Duration
}

// Report is what one RunOnce produced.
type Report struct {
	Result search.RunResult `json:"result"`
	// Dir is the report directory, empty without an output dir.
	Dir string `json:"dir,omitempty"`
	// NewMatches is -1 without a history database.
	NewMatches int      `json:"new_matches"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Service loads the configuration, runs the search and stores the result.
// The configuration files are read again on every run.
type Service struct {
	opts     Options
	registry *scrape.Registry
	orch     *search.Orchestrator
	db       *store.DB
	writer   *report.Writer

	running atomic.Bool
	wg      sync.WaitGroup
	mu      sync.RWMutex
	last    *Report
}

// New wires a service. db may be nil.
func New(opts Options, registry *scrape.Registry, db *store.DB, observers ...search.Observer) *Service {
	s := &Service{
		opts:     opts,
		registry: registry,
		orch:     search.New(registry, search.WithObserver(observers...)),
		db:       db,
	}
	if opts.OutputDir != "" {
		s.writer = report.NewWriter(opts.OutputDir)
	}
	return s
}

func (s *Service) Running() bool { return s.running.Load() }

// Wait blocks until the run in progress, if any, has finished.
func (s *Service) Wait() { s.wg.Wait() }

// Last returns the report of the most recent completed run.
func (s *Service) Last() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

// RunOnce executes a full run. Company failures are part of the report; an
// error means the run could not start or its result could not be stored.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	if !s.acquire() {
		return Report{}, ErrRunning
	}
	defer s.release()
	return s.run(ctx)
}

// Start begins a run in the background. It fails with ErrRunning right away
// when a run is in progress. done, when set, receives the run's report
// before Wait returns.
func (s *Service) Start(ctx context.Context, done func(Report, error)) error {
	if !s.acquire() {
		return ErrRunning
	}
	go func() {
		defer s.release()
		rep, err := s.run(ctx)
		if done != nil {
			done(rep, err)
		}
	}()
	return nil
}

// acquire claims the run slot and registers the run with Wait before any
// goroutine is started for it.
func (s *Service) acquire() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Service) release() {
	s.running.Store(false)
	s.wg.Done()
}

func (s *Service) run(ctx context.Context) (Report, error) {
	rep := Report{NewMatches: -1}

	cfg, err := config.Load(s.opts.Paths, s.registry.Names())
	if err != nil {
		return rep, err
	}
	rep.Warnings = cfg.Warnings
	for _, w := range cfg.Warnings {
		slog.WarnContext(ctx, "config: "+w)
	}

	res, err := s.orch.Run(ctx, cfg.Companies, cfg.Titles, s.opts.Timeout, s.opts.Concurrency)
	if err != nil {
		return rep, err
	}
	rep.Result = res

	// The result is stored even when the run was cancelled.
	sctx := context.WithoutCancel(ctx)
	var errs []error
	if s.writer != nil {
		dir, err := s.writer.Write(sctx, res)
		rep.Dir = dir
		if err != nil {
			errs = append(errs, fmt.Errorf("write report: %w", err))
		}
	}
	if s.db != nil {
		sum, err := store.SaveRun(sctx, s.db.Pool, res)
		if err != nil {
			errs = append(errs, fmt.Errorf("save run: %w", err))
		} else {
			rep.NewMatches = sum.NewMatches
		}
		if s.opts.KeepHistory > 0 {
			n, err := store.PruneRuns(sctx, s.db.Pool, time.Now().Add(-s.opts.KeepHistory))
			if err != nil {
				errs = append(errs, err)
			} else if n > 0 {
				slog.InfoContext(ctx, "pruned old runs", "deleted", n)
			}
		}
	}

	s.mu.Lock()
	s.last = &rep
	s.mu.Unlock()
	return rep, errors.Join(errs...)
}
