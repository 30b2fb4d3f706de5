package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/log"

	"github.com/spf13/cobra"
)

var (
	flagVerbose   bool
	flagCompanies string
	flagTitles    string
	flagOutput    string
	flagTimeout   time.Duration
	flagConc      int
	flagDB        string
	flagPrune     time.Duration
	flagRate      float64
	flagBurst     int
	flagMetrics   string
	flagAddr      string
	flagInterval  time.Duration
)

func main() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")
	rootCmd.SilenceErrors = true
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		slog.SetDefault(log.New(flagVerbose))
	}

	for _, c := range []*cobra.Command{runCmd, serveCmd} {
		f := c.Flags()
		f.StringVarP(&flagCompanies, "companies", "c", "", "companies file (default companies.yaml, env "+config.EnvCompanies+")")
		f.StringVarP(&flagTitles, "titles", "t", "", "target titles file (default titles.yaml, env "+config.EnvTitles+")")
		f.StringVarP(&flagOutput, "output", "o", "job_results", "report directory, empty disables report files")
		f.DurationVar(&flagTimeout, "timeout", 30*time.Second, "per company time limit")
		f.IntVar(&flagConc, "concurrency", 8, "companies processed at the same time")
		f.StringVar(&flagDB, "db", "", "sqlite file keeping the run history")
		f.DurationVar(&flagPrune, "prune", 0, "delete stored runs older than this, 0 keeps all")
		f.Float64Var(&flagRate, "rate", 2, "requests per second per host")
		f.IntVar(&flagBurst, "burst", 4, "request burst per host")
	}
	runCmd.Flags().StringVar(&flagMetrics, "metrics-file", "", "write run metrics in the Prometheus text format to this file")
	serveCmd.Flags().StringVar(&flagAddr, "addr", "127.0.0.1:38471", "HTTP listen address")
	serveCmd.Flags().DurationVar(&flagInterval, "interval", time.Hour, "time between scheduled runs, 0 disables scheduling")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("jobsearch failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "jobsearch",
	Short:        "Searches company career sites for job titles",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a single search and write the report",
	Args:  cobra.NoArgs,
	RunE:  doRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run searches on a schedule and serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  doServe,
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "write starter companies.yaml and titles.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE:  doInit,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("jobsearch: version info not available")
			return
		}
		fmt.Printf("jobsearch: %s\n", info.Main.Version)
		fmt.Printf("go:        %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:    %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:      %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:     %s\n", s.Value)
			}
		}
	},
}

func doInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	_, created, err := config.EnsureUserConfig(dir)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "configuration already present in", dir)
		return nil
	}
	for _, p := range created {
		fmt.Fprintln(cmd.OutOrStdout(), "created", p)
	}
	return nil
}
