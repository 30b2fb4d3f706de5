// Package report lays a RunResult out on disk:
//
//	<out>/<YYYYMMDD-HHMMSS>/
//	    summary.json
//	    matches.csv
//	    01-acme.json    one file per company, in configuration order
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/search"

	"github.com/gofrs/flock"
	"github.com/panjf2000/ants/v2"
)

// ErrLocked is returned when another process is writing into the same
// output directory.
var ErrLocked = errors.New("output directory is locked by another run")

const lockFile = ".jobsearch.lock"

type Writer struct {
	dir         string
	workers     int
	lockTimeout time.Duration
}

type Option func(*Writer)

func WithWorkers(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.workers = n
		}
	}
}

func WithLockTimeout(d time.Duration) Option {
	return func(w *Writer) { w.lockTimeout = d }
}

func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{
		dir:         dir,
		workers:     max(1, runtime.NumCPU()/2),
		lockTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type companyFile struct {
	RunID      string                  `json:"run_id"`
	Company    string                  `json:"company"`
	Adapter    string                  `json:"adapter"`
	Status     search.Status           `json:"status"`
	Error      *search.OutcomeError    `json:"error,omitempty"`
	ElapsedSec float64                 `json:"elapsed_seconds"`
	Fetched    int                     `json:"fetched"`
	Duplicates int                     `json:"duplicates"`
	Matches    []domain.MatchedPosting `json:"matches"`
}

type summaryFile struct {
	RunID       string           `json:"run_id"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	DurationSec float64          `json:"duration_seconds"`
	Counts      search.Counts    `json:"counts"`
	Companies   []summaryCompany `json:"companies"`
}

type summaryCompany struct {
	Company string               `json:"company"`
	Status  search.Status        `json:"status"`
	Matches int                  `json:"matches"`
	File    string               `json:"file"`
	Error   *search.OutcomeError `json:"error,omitempty"`
}

// Write stores res in a new timestamped directory under the writer's output
// directory and returns that directory.
func (w *Writer) Write(ctx context.Context, res search.RunResult) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	lk := flock.New(filepath.Join(w.dir, lockFile))
	lctx, cancel := context.WithTimeout(ctx, w.lockTimeout)
	defer cancel()
	ok, err := lk.TryLockContext(lctx, 50*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("lock output dir: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", w.dir, ErrLocked)
	}
	defer func() { _ = lk.Unlock() }()

	runDir, err := w.runDir(res)
	if err != nil {
		return "", err
	}

	files := make([]string, len(res.Outcomes))
	for i, o := range res.Outcomes {
		files[i] = CompanyFileName(i, o.Company)
	}

	if err := w.writeCompanies(runDir, res, files); err != nil {
		return runDir, err
	}

	sum := summaryFile{
		RunID:       res.RunID,
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
		DurationSec: res.Duration().Seconds(),
		Counts:      res.Counts,
		Companies:   make([]summaryCompany, 0, len(res.Outcomes)),
	}
	for i, o := range res.Outcomes {
		sum.Companies = append(sum.Companies, summaryCompany{
			Company: o.Company,
			Status:  o.Status,
			Matches: len(o.Matches),
			File:    files[i],
			Error:   o.Error,
		})
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), sum); err != nil {
		return runDir, err
	}
	if err := writeCSV(filepath.Join(runDir, "matches.csv"), res.Matches()); err != nil {
		return runDir, err
	}

	slog.InfoContext(ctx, "report written", "dir", runDir, "companies", len(res.Outcomes))
	return runDir, nil
}

// runDir creates the directory for res, named after its start time. A
// second run within the same second gets the run id appended.
func (w *Writer) runDir(res search.RunResult) (string, error) {
	started := res.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	name := started.Local().Format("20060102-150405")
	dir := filepath.Join(w.dir, name)
	if _, err := os.Stat(dir); err == nil {
		suffix := res.RunID
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		dir = filepath.Join(w.dir, name+"-"+suffix)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

func (w *Writer) writeCompanies(runDir string, res search.RunResult, files []string) error {
	pool, err := ants.NewPool(w.workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i, o := range res.Outcomes {
		cf := companyFile{
			RunID:      res.RunID,
			Company:    o.Company,
			Adapter:    o.Adapter,
			Status:     o.Status,
			Error:      o.Error,
			ElapsedSec: o.Elapsed.Seconds(),
			Fetched:    o.Fetched,
			Duplicates: o.Duplicates,
			Matches:    o.Matches,
		}
		if cf.Matches == nil {
			cf.Matches = []domain.MatchedPosting{}
		}
		path := filepath.Join(runDir, files[i])

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := writeJSON(path, cf); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

// CompanyFileName is the per-company file name: position (1-based) and a
// file-system safe form of the name.
func CompanyFileName(pos int, company string) string {
	return fmt.Sprintf("%02d-%s.json", pos+1, slugify(company))
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "company"
	}
	return out
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeCSV(path string, matches []domain.MatchedPosting) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	_ = cw.Write([]string{"company", "title", "location", "url", "target"})
	for _, m := range matches {
		_ = cw.Write([]string{m.Company, m.Title, m.Location, m.URL, string(m.Target)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write matches.csv: %w", err)
	}
	return f.Close()
}
