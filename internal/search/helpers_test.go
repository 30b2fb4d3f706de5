package search_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/search"

	"github.com/stretchr/testify/require"
)

// fakeSite describes how the adapter behaves for one company.
type fakeSite struct {
	delay     time.Duration
	ignoreCtx bool
	postings  []string
	err       error
	panics    bool
}

type fakeResolver map[string]fakeSite

func (f fakeResolver) AdapterFor(co domain.Company) (types.Adapter, error) {
	site, ok := f[co.Name]
	if !ok {
		return nil, types.ErrUnknownAdapter
	}
	return types.AdapterFunc(func(ctx context.Context, co domain.Company) ([]domain.RawPosting, error) {
		if site.delay > 0 {
			if site.ignoreCtx {
				time.Sleep(site.delay)
			} else {
				select {
				case <-time.After(site.delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
		if site.panics {
			panic("boom")
		}
		if site.err != nil {
			return nil, site.err
		}
		out := make([]domain.RawPosting, 0, len(site.postings))
		for i, title := range site.postings {
			out = append(out, domain.RawPosting{
				Title:   title,
				URL:     "https://jobs.example/" + co.Name + "/" + string(rune('a'+i)),
				Company: co.Name,
			})
		}
		return out, nil
	}), nil
}

func companies(names ...string) []domain.Company {
	out := make([]domain.Company, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Company{Name: n, Adapter: "fake"})
	}
	return out
}

// requireWellFormed checks the properties every RunResult must have.
func requireWellFormed(t *testing.T, cos []domain.Company, res search.RunResult) {
	t.Helper()
	require.Len(t, res.Outcomes, len(cos))
	for i, o := range res.Outcomes {
		require.Equal(t, cos[i].Name, o.Company)
		if o.OK() {
			require.Nil(t, o.Error)
		} else {
			require.NotNil(t, o.Error)
			require.NotEmpty(t, o.Error.Message)
			require.Empty(t, o.Matches)
		}
	}
	require.Equal(t, search.CountOutcomes(res.Outcomes), res.Counts)
	require.False(t, res.FinishedAt.Before(res.StartedAt))
}

type event struct {
	kind    string
	company string
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) add(kind, company string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind, company})
}

func (r *recorder) RunStarted(string, int) { r.add("run_started", "") }
func (r *recorder) CompanyStarted(_ string, co domain.Company) { r.add("started", co.Name) }
func (r *recorder) CompanyFinished(_ string, o search.Outcome) { r.add("finished", o.Company) }
func (r *recorder) RunFinished(search.RunResult) { r.add("run_finished", "") }

func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) started(company string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.kind == "started" && e.company == company {
			return true
		}
	}
	return false
}
