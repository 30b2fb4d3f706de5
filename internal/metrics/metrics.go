package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/search"
	"jobsearch-engine/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobsearch"

// Metrics records run progress as a search.Observer. Each instance owns its
// registry so tests and the CLI never touch the global one.
type Metrics struct {
	reg *prometheus.Registry

	runs           prometheus.Counter
	running        prometheus.Gauge
	outcomes       *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	matches        *prometheus.CounterVec
	lastRun        prometheus.Gauge
	lastRunMatches prometheus.Gauge
}

var _ search.Observer = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed search runs.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_in_progress",
			Help:      "1 while a search run is executing.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "company_outcomes_total",
			Help:      "Per company outcomes by adapter and status.",
		}, []string{"adapter", "status"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "company_duration_seconds",
			Help:      "Time spent on one company, fetch and match.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"adapter"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Matched postings by adapter.",
		}, []string{"adapter"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastRunMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_matches",
			Help:      "Matches found by the last run.",
		}),
	}
	m.reg.MustRegister(
		m.runs, m.running, m.outcomes, m.fetchDuration, m.matches, m.lastRun, m.lastRunMatches,
	)
	return m
}

// WithRuntime adds the Go runtime and process collectors, used by serve.
func (m *Metrics) WithRuntime() *Metrics {
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// WriteTextfile writes the current values in the text format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

func (m *Metrics) RunStarted(string, int) { m.running.Set(1) }

func (m *Metrics) CompanyStarted(string, domain.Company) {}

func (m *Metrics) CompanyFinished(_ string, o search.Outcome) {
	adapter := o.Adapter
	if adapter == "" {
		adapter = "unknown"
	}
	m.outcomes.WithLabelValues(adapter, string(o.Status)).Inc()
	if o.Status != search.StatusCancelled {
		m.fetchDuration.WithLabelValues(adapter).Observe(o.Elapsed.Seconds())
	}
	if n := len(o.Matches); n > 0 {
		m.matches.WithLabelValues(adapter).Add(float64(n))
	}
}

func (m *Metrics) RunFinished(r search.RunResult) {
	m.running.Set(0)
	m.runs.Inc()
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	m.lastRun.Set(float64(finished.Unix()))
	m.lastRunMatches.Set(float64(r.Counts.Matches))
}

var (
	storedRunsDesc = prometheus.NewDesc(
		namespace+"_history_runs",
		"Runs kept in the history database.",
		nil, nil,
	)
	storedPostingsDesc = prometheus.NewDesc(
		namespace+"_history_postings",
		"Distinct matched postings tracked in the history database.",
		nil, nil,
	)
)

// HistoryCollector reads the history database on each scrape.
type HistoryCollector struct {
	db *sql.DB
}

func (c *HistoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- storedRunsDesc
	ch <- storedPostingsDesc
}

func (c *HistoryCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := store.Stats(ctx, c.db)
	if err != nil {
		slog.Error("failed to collect history metrics", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(storedRunsDesc, prometheus.GaugeValue, float64(s.Runs))
	ch <- prometheus.MustNewConstMetric(storedPostingsDesc, prometheus.GaugeValue, float64(s.Postings))
}

// WithHistory exports the size of the history database.
func (m *Metrics) WithHistory(db *sql.DB) *Metrics {
	m.reg.MustRegister(&HistoryCollector{db: db})
	return m
}
