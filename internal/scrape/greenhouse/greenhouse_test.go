package greenhouse_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/greenhouse"
	"jobsearch-engine/internal/scrape/types"

	"github.com/stretchr/testify/require"
)

const board = `<html><body>
<section class="level-0">
  <div class="opening"><a href="/acme/jobs/101">Senior Software Engineer</a><span class="location">Remote</span></div>
  <div class="opening"><a href="/acme/jobs/102?gh_src=x">Apply now</a><span class="location">Austin, TX</span></div>
  <div class="opening"><a href="/acme/jobs/101">Senior Software Engineer</a></div>
  <a href="https://elsewhere.example/jobs/9">External</a>
  <a href="/acme/about">About</a>
</section>
</body></html>`

func TestFetch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/acme", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, board)
	})
	mux.HandleFunc("/acme/jobs/102", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><h1> Product   Manager </h1></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := greenhouse.New(srv.Client(), nil).WithBoardBase(srv.URL)
	got, err := s.Fetch(t.Context(), domain.Company{Name: "Acme", Adapter: "greenhouse", Slug: "acme"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "Senior Software Engineer", got[0].Title)
	require.Equal(t, "Remote", got[0].Location)
	require.Equal(t, srv.URL+"/acme/jobs/101", got[0].URL)
	require.Equal(t, "Acme", got[0].Company)

	require.Equal(t, "Product Manager", got[1].Title)
	require.Equal(t, "Austin, TX", got[1].Location)
}

func TestFetchStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	s := greenhouse.New(srv.Client(), nil).WithBoardBase(srv.URL)
	_, err := s.Fetch(t.Context(), domain.Company{Name: "Acme", Slug: "acme"})
	require.Error(t, err)
	require.Equal(t, types.KindNetwork, types.Classify(err))
}

func TestFetchRequiresSlugOrURL(t *testing.T) {
	t.Parallel()

	_, err := greenhouse.New(http.DefaultClient, nil).Fetch(t.Context(), domain.Company{Name: "Acme"})
	require.Error(t, err)
	require.Equal(t, types.KindUnknown, types.Classify(err))
}
