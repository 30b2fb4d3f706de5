package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/log"
	"jobsearch-engine/internal/metrics"
	"jobsearch-engine/internal/report"
	"jobsearch-engine/internal/scrape"
	"jobsearch-engine/internal/scrape/util"
	"jobsearch-engine/internal/search"
	"jobsearch-engine/internal/service"
	"jobsearch-engine/internal/store"

	"github.com/spf13/cobra"
)

func paths() (config.Paths, error) {
	p := config.OverlayEnv(config.Paths{Companies: flagCompanies, Titles: flagTitles})
	if p.Companies == "" {
		p.Companies = config.CompaniesFileName
	}
	if p.Titles == "" {
		p.Titles = config.TitlesFileName
	}
	return p, p.Check()
}

func options(p config.Paths) service.Options {
	return service.Options{
		Paths:       p,
		OutputDir:   flagOutput,
		Timeout:     flagTimeout,
		Concurrency: flagConc,
		KeepHistory: flagPrune,
	}
}

func newRegistry() *scrape.Registry {
	return scrape.NewRegistry(util.NewClient(), util.NewHostLimiter(flagRate, flagBurst))
}

func openDB(ctx context.Context) (*store.DB, error) {
	if flagDB == "" {
		return nil, nil
	}
	return store.Open(ctx, flagDB)
}

func doRun(cmd *cobra.Command, _ []string) error {
	ctx := log.ContextAttrs(cmd.Context(), slog.Group("jobsearch",
		slog.String("cmd", "run"),
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

	m := metrics.New()
	svc := service.New(options(p), newRegistry(), db, m)

	rep, err := svc.RunOnce(ctx)
	if rep.Result.RunID == "" {
		return err
	}

	out := cmd.OutOrStdout()
	if perr := report.PrintSummary(out, rep.Result, rep.NewMatches); perr != nil {
		return perr
	}
	if rep.Dir != "" {
		fmt.Fprintln(out, "report:", rep.Dir)
	}
	if ctx.Err() != nil {
		fmt.Fprintln(out, "run interrupted; unfinished companies are marked", search.StatusCancelled)
	}
	if flagMetrics != "" {
		if merr := m.WriteTextfile(flagMetrics); merr != nil {
			return fmt.Errorf("write metrics: %w", merr)
		}
	}
	return err
}
