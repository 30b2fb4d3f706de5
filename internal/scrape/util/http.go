package util

import (
	"context"
	"io"
	"net/http"
	"time"

	"jobsearch-engine/internal/scrape/types"
)

const UserAgent = "JobSearch/1.0 (+local)"

// NewClient returns the HTTP client adapters share. Per-request deadlines
// come from the context; Timeout only guards against hung connections.
func NewClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// Do waits for the host limiter, sends req and checks the status code. On
// success the caller owns resp.Body.
func Do(ctx context.Context, hc *http.Client, lim *HostLimiter, req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}
	if err := lim.WaitURL(ctx, req.URL.String()); err != nil {
		return nil, err
	}
	res, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		return nil, types.NetworkError(err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		res.Body.Close()
		return nil, &types.StatusError{URL: req.URL.String(), Status: res.StatusCode}
	}
	return res, nil
}

// Get is Do for a plain GET with an Accept header.
func Get(ctx context.Context, hc *http.Client, lim *HostLimiter, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return Do(ctx, hc, lim, req)
}
