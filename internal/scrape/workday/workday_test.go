package workday_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/workday"

	"github.com/stretchr/testify/require"
)

const jobsPath = "/wday/cxs/127/careers/jobs"

type fakeBoard struct {
	total int
	// tokenAfter is the number of bootstrap GETs that come back without a cookie.
	tokenAfter int32
	status     int

	boots atomic.Int32
	posts atomic.Int32
}

func (f *fakeBoard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/en-US/careers":
		n := f.boots.Add(1)
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		if n > f.tokenAfter {
			http.SetCookie(w, &http.Cookie{Name: "CALYPSO_CSRF_TOKEN", Value: "tok", Path: "/"})
		}
		_, _ = fmt.Fprint(w, "<html>board</html>")
	case r.Method == http.MethodPost && r.URL.Path == jobsPath:
		f.posts.Add(1)
		if r.Header.Get("x-calypso-csrf-token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var postings []map[string]any
		for i := req.Offset; i < f.total && i < req.Offset+req.Limit; i++ {
			postings = append(postings, map[string]any{
				"title":         fmt.Sprintf("Platform Engineer %d", i),
				"externalPath":  fmt.Sprintf("/job/Remote/PE_R%d", i),
				"locationsText": "Remote, US",
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"total": f.total, "jobPostings": postings})
	default:
		http.NotFound(w, r)
	}
}

func fetch(t *testing.T, fb *fakeBoard) ([]domain.RawPosting, error) {
	t.Helper()
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	s := workday.New(srv.Client(), nil)
	return s.Fetch(t.Context(), domain.Company{Name: "Acme", BaseURL: srv.URL + "/en-US/careers"})
}

func TestFetchPaged(t *testing.T) {
	t.Parallel()

	fb := &fakeBoard{total: 60}
	got, err := fetch(t, fb)
	require.NoError(t, err)
	require.Len(t, got, 60)
	require.Equal(t, int32(1), fb.boots.Load())
	require.Equal(t, int32(2), fb.posts.Load())

	require.Equal(t, "Platform Engineer 0", got[0].Title)
	require.Equal(t, "Remote, US", got[0].Location)
	require.Equal(t, "Acme", got[0].Company)
	require.Contains(t, got[0].URL, "/en-US/careers/job/Remote/PE_R0")
}

func TestFetchRetriesAfterBootstrap(t *testing.T) {
	t.Parallel()

	fb := &fakeBoard{total: 3, tokenAfter: 1}
	got, err := fetch(t, fb)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int32(2), fb.boots.Load())
	require.Equal(t, int32(2), fb.posts.Load())
}

func TestFetchGivesUpAfterOneRetry(t *testing.T) {
	t.Parallel()

	fb := &fakeBoard{total: 3, tokenAfter: 10}
	_, err := fetch(t, fb)
	require.Error(t, err)
	require.Equal(t, types.KindNetwork, types.Classify(err))
	require.Equal(t, int32(2), fb.boots.Load())
	require.Equal(t, int32(1), fb.posts.Load())
}

func TestFetchBlocked(t *testing.T) {
	t.Parallel()

	fb := &fakeBoard{status: http.StatusForbidden}
	_, err := fetch(t, fb)
	require.ErrorIs(t, err, types.ErrBlocked)
	require.Equal(t, types.KindNetwork, types.Classify(err))
	require.Zero(t, fb.posts.Load())
}

func TestFetchBadBoardURL(t *testing.T) {
	t.Parallel()

	_, err := workday.New(http.DefaultClient, nil).Fetch(t.Context(), domain.Company{Name: "Acme"})
	require.Error(t, err)
	require.Equal(t, types.KindUnknown, types.Classify(err))
}
