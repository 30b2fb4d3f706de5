package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/search"
	"jobsearch-engine/internal/store"

	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(t.Context(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func match(company, title, url string) domain.MatchedPosting {
	return domain.MatchedPosting{
		RawPosting: domain.RawPosting{Title: title, Location: "Remote", URL: url, Company: company},
		Target:     "engineer",
	}
}

func result(id string, started time.Time, outs ...search.Outcome) search.RunResult {
	return search.RunResult{
		RunID:      id,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Outcomes:   outs,
		Counts:     search.CountOutcomes(outs),
	}
}

func success(company string, ms ...domain.MatchedPosting) search.Outcome {
	if ms == nil {
		ms = []domain.MatchedPosting{}
	}
	return search.Outcome{
		Company: company, Adapter: "lever", Status: search.StatusSuccess,
		Matches: ms, Elapsed: 1500 * time.Millisecond, Fetched: len(ms) + 2,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	db := open(t)
	require.NoError(t, store.Migrate(t.Context(), db.Pool))
	v, err := store.SchemaVersion(t.Context(), db.Pool)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	db := open(t)
	ctx := t.Context()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	res := result("run-1", start,
		success("Acme", match("Acme", "Backend Engineer", "https://jobs.example/1")),
		search.Outcome{
			Company: "Globex", Adapter: "workday", Status: search.StatusTimedOut,
			Matches: []domain.MatchedPosting{},
			Error:   &search.OutcomeError{Kind: search.KindTimeout, Message: "no response within 30s"},
			Elapsed: 30 * time.Second,
		},
		success("Initech"),
	)

	sum, err := store.SaveRun(ctx, db.Pool, res)
	require.NoError(t, err)
	require.Equal(t, 1, sum.NewMatches)

	run, err := store.GetRun(ctx, db.Pool, "run-1")
	require.NoError(t, err)
	require.Equal(t, "run-1", run.ID)
	require.True(t, start.Equal(run.StartedAt))
	require.Equal(t, res.Counts, run.Counts)
	require.Len(t, run.Outcomes, 3)

	acme := run.Outcomes[0]
	require.Equal(t, "Acme", acme.Company)
	require.Equal(t, int64(1500), acme.ElapsedMS)
	require.Nil(t, acme.Error)
	require.Len(t, acme.Matches, 1)
	require.True(t, acme.Matches[0].New)
	require.Equal(t, "Acme", acme.Matches[0].Company)
	require.Equal(t, domain.TargetTitle("engineer"), acme.Matches[0].Target)

	globex := run.Outcomes[1]
	require.Equal(t, search.StatusTimedOut, globex.Status)
	require.Equal(t, &search.OutcomeError{Kind: search.KindTimeout, Message: "no response within 30s"}, globex.Error)
	require.Empty(t, globex.Matches)

	require.Equal(t, "Initech", run.Outcomes[2].Company)
}

func TestNewFlagAcrossRuns(t *testing.T) {
	t.Parallel()

	db := open(t)
	ctx := t.Context()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := store.SaveRun(ctx, db.Pool, result("r1", start,
		success("Acme", match("Acme", "Backend Engineer", "https://jobs.example/1")),
	))
	require.NoError(t, err)

	// Same posting with a tracking parameter, one new posting, and the same
	// URL at another company.
	sum, err := store.SaveRun(ctx, db.Pool, result("r2", start.Add(time.Hour),
		success("Acme",
			match("Acme", "Backend Engineer", "https://jobs.example/1?utm_source=feed"),
			match("Acme", "Platform Engineer", "https://jobs.example/2"),
		),
		success("Globex", match("Globex", "Backend Engineer", "https://jobs.example/1")),
	))
	require.NoError(t, err)
	require.Equal(t, 2, sum.NewMatches)

	run, err := store.GetRun(ctx, db.Pool, "r2")
	require.NoError(t, err)
	require.False(t, run.Outcomes[0].Matches[0].New)
	require.True(t, run.Outcomes[0].Matches[1].New)
	require.True(t, run.Outcomes[1].Matches[0].New)
	require.Len(t, run.NewMatches(), 2)
}

func TestListAndLatest(t *testing.T) {
	t.Parallel()

	db := open(t)
	ctx := t.Context()

	_, err := store.LatestRun(ctx, db.Pool)
	require.ErrorIs(t, err, store.ErrNotFound)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, err := store.SaveRun(ctx, db.Pool, result(id, start.Add(time.Duration(i)*time.Hour), success("Acme")))
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(ctx, db.Pool, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "c", runs[0].ID)
	require.Equal(t, "b", runs[1].ID)

	latest, err := store.LatestRun(ctx, db.Pool)
	require.NoError(t, err)
	require.Equal(t, "c", latest.ID)

	_, err = store.GetRun(ctx, db.Pool, "zzz")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPruneRuns(t *testing.T) {
	t.Parallel()

	db := open(t)
	ctx := t.Context()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.SaveRun(ctx, db.Pool, result("old", old,
		success("Acme", match("Acme", "Backend Engineer", "https://jobs.example/1"))))
	require.NoError(t, err)
	_, err = store.SaveRun(ctx, db.Pool, result("new", recent, success("Acme")))
	require.NoError(t, err)

	n, err := store.PruneRuns(ctx, db.Pool, recent.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = store.GetRun(ctx, db.Pool, "old")
	require.ErrorIs(t, err, store.ErrNotFound)

	var left int
	require.NoError(t, db.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches;`).Scan(&left))
	require.Zero(t, left)

	// The pruned posting counts as new again.
	sum, err := store.SaveRun(ctx, db.Pool, result("again", recent.Add(time.Hour),
		success("Acme", match("Acme", "Backend Engineer", "https://jobs.example/1"))))
	require.NoError(t, err)
	require.Equal(t, 1, sum.NewMatches)
}

func TestFailedOutcomeKind(t *testing.T) {
	t.Parallel()

	db := open(t)
	res := result("f", time.Now(), search.Outcome{
		Company: "Acme", Adapter: "lever", Status: search.StatusFailed,
		Matches: []domain.MatchedPosting{},
		Error:   &search.OutcomeError{Kind: types.KindParse, Message: "bad json"},
	})
	_, err := store.SaveRun(t.Context(), db.Pool, res)
	require.NoError(t, err)

	run, err := store.GetRun(t.Context(), db.Pool, "f")
	require.NoError(t, err)
	require.Equal(t, types.KindParse, run.Outcomes[0].Error.Kind)
	require.Equal(t, 1, run.Counts.Failed)
}
