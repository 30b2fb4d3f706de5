package report_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/report"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/search"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"
)

func sample() search.RunResult {
	start := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	outs := []search.Outcome{
		{
			Company: "Acme Corp", Adapter: "greenhouse", Status: search.StatusSuccess,
			Fetched: 3, Elapsed: 1200 * time.Millisecond,
			Matches: []domain.MatchedPosting{{
				RawPosting: domain.RawPosting{Title: "Staff Software Engineer", Location: "Remote", URL: "https://acme.example/1", Company: "Acme Corp"},
				Target:     "software engineer",
			}},
		},
		{
			Company: "Globex", Adapter: "lever", Status: search.StatusFailed,
			Matches: []domain.MatchedPosting{},
			Error:   &search.OutcomeError{Kind: types.KindNetwork, Message: "connection refused"},
		},
	}
	return search.RunResult{
		RunID:      "0b7f7c1e-1111-2222-3333-444455556666",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Outcomes:   outs,
		Counts:     search.CountOutcomes(outs),
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	res := sample()
	dir, err := report.NewWriter(out, report.WithWorkers(2)).Write(t.Context(), res)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "20260301-093000"), dir)

	var acme map[string]any
	b, err := os.ReadFile(filepath.Join(dir, "01-acme-corp.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &acme))
	require.Equal(t, "success", acme["status"])
	require.Len(t, acme["matches"], 1)

	var globex map[string]any
	b, err = os.ReadFile(filepath.Join(dir, "02-globex.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &globex))
	require.Equal(t, "failed", globex["status"])
	require.Equal(t, []any{}, globex["matches"])
	require.Equal(t, "network", globex["error"].(map[string]any)["kind"])

	var sum struct {
		RunID     string        `json:"run_id"`
		Counts    search.Counts `json:"counts"`
		Companies []struct {
			Company string `json:"company"`
			File    string `json:"file"`
		} `json:"companies"`
	}
	b, err = os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &sum))
	require.Equal(t, res.RunID, sum.RunID)
	require.Equal(t, res.Counts, sum.Counts)
	require.Equal(t, "02-globex.json", sum.Companies[1].File)

	f, err := os.Open(filepath.Join(dir, "matches.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"company", "title", "location", "url", "target"},
		{"Acme Corp", "Staff Software Engineer", "Remote", "https://acme.example/1", "software engineer"},
	}, rows)
}

func TestWriteSameSecond(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	w := report.NewWriter(out)
	first, err := w.Write(t.Context(), sample())
	require.NoError(t, err)
	second, err := w.Write(t.Context(), sample())
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, first+"-0b7f7c1e", second)
}

func TestWriteLocked(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	lk := flock.New(filepath.Join(out, ".jobsearch.lock"))
	ok, err := lk.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = lk.Unlock() })

	_, err = report.NewWriter(out, report.WithLockTimeout(100*time.Millisecond)).Write(t.Context(), sample())
	require.ErrorIs(t, err, report.ErrLocked)
}

func TestCompanyFileName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		scenario string
		pos      int
		name     string
		want     string
	}{
		{"plain", 0, "Acme", "01-acme.json"},
		{"punctuation", 4, "AT&T  Labs, Inc.", "05-at-t-labs-inc.json"},
		{"non ascii only", 11, "日本", "12-company.json"},
	}
	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, report.CompanyFileName(tc.pos, tc.name))
		})
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.PrintSummary(&buf, sample(), 1))
	out := buf.String()
	require.Contains(t, out, "COMPANY")
	require.Contains(t, out, "Acme Corp")
	require.Contains(t, out, "network: connection refused")
	require.Contains(t, out, "2 companies: 1 ok, 1 failed (0 cancelled), 0 timed out. 1 matches, 1 new in 2s.")
	require.Contains(t, out, "  Acme Corp: Staff Software Engineer (Remote)\n    https://acme.example/1\n")
}
