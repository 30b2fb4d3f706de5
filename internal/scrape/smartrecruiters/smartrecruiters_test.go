package smartrecruiters_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/smartrecruiters"

	"github.com/stretchr/testify/require"
)

func TestFetchPages(t *testing.T) {
	t.Parallel()

	const total = 150
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var content []map[string]any
		for i := offset; i < total && i < offset+limit; i++ {
			content = append(content, map[string]any{
				"id":   strconv.Itoa(i),
				"name": fmt.Sprintf("Engineer %d", i),
				"location": map[string]any{
					"city": "Prague", "country": "cz", "remote": i == 0,
				},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"content": content, "totalFound": total})
	}))
	t.Cleanup(srv.Close)

	s := smartrecruiters.New(srv.Client(), nil).WithAPIBase(srv.URL)
	got, err := s.Fetch(t.Context(), domain.Company{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	require.Len(t, got, total)
	require.Equal(t, int32(2), calls.Load())

	require.Equal(t, domain.RawPosting{
		Title:    "Engineer 0",
		Location: "Remote, Prague, cz",
		URL:      smartrecruiters.DefaultJobsBase + "/acme/0",
		Company:  "Acme",
	}, got[0])
	require.Equal(t, "Engineer 149", got[149].Title)
}

func TestFetchEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"content":[],"totalFound":0}`)
	}))
	t.Cleanup(srv.Close)

	got, err := smartrecruiters.New(srv.Client(), nil).WithAPIBase(srv.URL).
		Fetch(t.Context(), domain.Company{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	require.Empty(t, got)
}
