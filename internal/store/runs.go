package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
	"jobsearch-engine/internal/search"
)

type RunSummary struct {
	ID         string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Counts     search.Counts `json:"counts"`
	// NewMatches counts matches never seen before for their company.
	NewMatches int `json:"new_matches"`
}

type Match struct {
	domain.MatchedPosting
	New bool `json:"new"`
}

type Outcome struct {
	Company    string               `json:"company"`
	Adapter    string               `json:"adapter"`
	Status     search.Status        `json:"status"`
	Error      *search.OutcomeError `json:"error,omitempty"`
	ElapsedMS  int64                `json:"elapsed_ms"`
	Fetched    int                  `json:"fetched"`
	Duplicates int                  `json:"duplicates"`
	Matches    []Match              `json:"matches"`
}

type Run struct {
	RunSummary
	Outcomes []Outcome `json:"outcomes"`
}

// postingKey identifies a posting across runs: its canonical URL, or its
// normalized title when the adapter gave no URL.
func postingKey(m domain.MatchedPosting) string {
	if k := util.CanonicalURL(m.URL); k != "" {
		return k
	}
	return "title:" + domain.NormalizeTitle(m.Title)
}

// Fixed width so that text comparison in SQL orders by time.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func ts(t time.Time) string { return t.UTC().Format(tsLayout) }

// SaveRun stores res and flags every match whose company and posting were
// never stored before.
func SaveRun(ctx context.Context, db *sql.DB, res search.RunResult) (RunSummary, error) {
	sum := RunSummary{ID: res.RunID, StartedAt: res.StartedAt, FinishedAt: res.FinishedAt, Counts: res.Counts}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return sum, err
	}
	defer func() { _ = tx.Rollback() }()

	c := res.Counts
	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs(id, started_at, finished_at, companies, succeeded, failed, timed_out, cancelled, matches)
VALUES(?,?,?,?,?,?,?,?,?);`,
		res.RunID, ts(res.StartedAt), ts(res.FinishedAt),
		c.Companies, c.Succeeded, c.Failed, c.TimedOut, c.Cancelled, c.Matches,
	); err != nil {
		return sum, fmt.Errorf("insert run: %w", err)
	}

	now := ts(res.FinishedAt)
	for pos, o := range res.Outcomes {
		var kind, msg string
		if o.Error != nil {
			kind, msg = string(o.Error.Kind), o.Error.Message
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO outcomes(run_id, position, company, adapter, status, error_kind, error_message, elapsed_ms, fetched, duplicates)
VALUES(?,?,?,?,?,?,?,?,?,?);`,
			res.RunID, pos, o.Company, o.Adapter, string(o.Status), kind, msg,
			o.Elapsed.Milliseconds(), o.Fetched, o.Duplicates,
		); err != nil {
			return sum, fmt.Errorf("insert outcome %s: %w", o.Company, err)
		}

		for _, m := range o.Matches {
			seen, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO seen(company, posting_key, first_run_id, first_seen_at, last_seen_at)
VALUES(?,?,?,?,?);`,
				o.Company, postingKey(m), res.RunID, now, now,
			)
			if err != nil {
				return sum, fmt.Errorf("insert seen: %w", err)
			}
			n, _ := seen.RowsAffected()
			isNew := n > 0
			if isNew {
				sum.NewMatches++
			} else if _, err := tx.ExecContext(ctx,
				`UPDATE seen SET last_seen_at = ? WHERE company = ? AND posting_key = ?;`,
				now, o.Company, postingKey(m),
			); err != nil {
				return sum, fmt.Errorf("update seen: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
INSERT INTO matches(run_id, position, title, location, url, target, is_new)
VALUES(?,?,?,?,?,?,?);`,
				res.RunID, pos, m.Title, m.Location, m.URL, string(m.Target), isNew,
			); err != nil {
				return sum, fmt.Errorf("insert match: %w", err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE runs SET new_matches = ? WHERE id = ?;`, sum.NewMatches, res.RunID); err != nil {
		return sum, err
	}
	return sum, tx.Commit()
}

const summaryCols = `id, started_at, finished_at, companies, succeeded, failed, timed_out, cancelled, matches, new_matches`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (RunSummary, error) {
	var s RunSummary
	var started, finished string
	c := &s.Counts
	if err := row.Scan(&s.ID, &started, &finished,
		&c.Companies, &c.Succeeded, &c.Failed, &c.TimedOut, &c.Cancelled, &c.Matches, &s.NewMatches,
	); err != nil {
		return s, err
	}
	s.StartedAt, _ = time.Parse(tsLayout, started)
	s.FinishedAt, _ = time.Parse(tsLayout, finished)
	return s, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means 50.
func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `SELECT `+summaryCols+` FROM runs ORDER BY started_at DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RunSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func LatestRun(ctx context.Context, db *sql.DB) (Run, error) {
	var id string
	err := db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC LIMIT 1;`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	return GetRun(ctx, db, id)
}

func GetRun(ctx context.Context, db *sql.DB, id string) (Run, error) {
	s, err := scanSummary(db.QueryRowContext(ctx, `SELECT `+summaryCols+` FROM runs WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}
	run := Run{RunSummary: s, Outcomes: []Outcome{}}

	rows, err := db.QueryContext(ctx, `
SELECT company, adapter, status, error_kind, error_message, elapsed_ms, fetched, duplicates
FROM outcomes WHERE run_id = ? ORDER BY position;`, id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var o Outcome
		var kind, msg string
		if err := rows.Scan(&o.Company, &o.Adapter, &o.Status, &kind, &msg, &o.ElapsedMS, &o.Fetched, &o.Duplicates); err != nil {
			return Run{}, err
		}
		if o.Status != search.StatusSuccess {
			o.Error = &search.OutcomeError{Kind: types.ErrorKind(kind), Message: msg}
		}
		o.Matches = []Match{}
		run.Outcomes = append(run.Outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}

	mrows, err := db.QueryContext(ctx, `
SELECT position, title, location, url, target, is_new
FROM matches WHERE run_id = ? ORDER BY position, id;`, id)
	if err != nil {
		return Run{}, err
	}
	defer mrows.Close()
	for mrows.Next() {
		var pos int
		var m Match
		if err := mrows.Scan(&pos, &m.Title, &m.Location, &m.URL, &m.Target, &m.New); err != nil {
			return Run{}, err
		}
		if pos < 0 || pos >= len(run.Outcomes) {
			continue
		}
		m.Company = run.Outcomes[pos].Company
		run.Outcomes[pos].Matches = append(run.Outcomes[pos].Matches, m)
	}
	return run, mrows.Err()
}

// PruneRuns deletes runs started before cutoff together with their outcomes
// and matches, and forgets postings not seen since cutoff.
func PruneRuns(ctx context.Context, db *sql.DB, cutoff time.Time) (deleted int64, err error) {
	res, err := db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?;`, ts(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM seen WHERE last_seen_at < ?;`, ts(cutoff)); err != nil {
		return 0, fmt.Errorf("prune seen: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// NewMatches returns the matches of run that were new when it was stored.
func (r Run) NewMatches() []Match {
	var out []Match
	for _, o := range r.Outcomes {
		for _, m := range o.Matches {
			if m.New {
				out = append(out, m)
			}
		}
	}
	return out
}

// HistoryStats counts what the history database holds.
type HistoryStats struct {
	Runs     int
	Postings int
}

func Stats(ctx context.Context, db *sql.DB) (HistoryStats, error) {
	var s HistoryStats
	err := db.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM runs), (SELECT COUNT(*) FROM seen);`).Scan(&s.Runs, &s.Postings)
	return s, err
}
