package workday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

const (
	pageSize  = 50
	maxOffset = 5000
)

// Scraper talks to the JSON endpoint behind a myworkdayjobs.com board.
// Company.BaseURL is the public board URL, e.g.
// https://acme.wd5.myworkdayjobs.com/en-US/External.
type Scraper struct {
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(hc *http.Client, limiter *util.HostLimiter) *Scraper {
	return &Scraper{hc: hc, limiter: limiter}
}

func (s *Scraper) Name() string { return "workday" }

type jobsRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type jobsResponse struct {
	Total       int          `json:"total"`
	JobPostings []jobPosting `json:"jobPostings"`
}

type jobPosting struct {
	Title         string `json:"title"`
	ExternalPath  string `json:"externalPath"`
	ExternalURL   string `json:"externalUrl"`
	LocationsText string `json:"locationsText"`
	Location      string `json:"location"`
}

type board struct {
	URL    string
	Scheme string
	Host   string
	Tenant string
	Site   string
	Locale string
}

// session is the per-call state: a cookie jar so CALYPSO_CSRF_TOKEN and
// CXS_SESSION survive between the bootstrap GET and the job POSTs.
type session struct {
	hc   *http.Client
	csrf string
	// booted is set once a bootstrap GET produced a token.
	booted bool
}

func (s *Scraper) newSession() *session {
	jar, _ := cookiejar.New(nil)
	hc := &http.Client{Jar: jar}
	if s.hc != nil {
		hc.Transport = s.hc.Transport
		hc.Timeout = s.hc.Timeout
	}
	return &session{hc: hc}
}

func (s *Scraper) Fetch(ctx context.Context, co domain.Company) ([]domain.RawPosting, error) {
	b, err := parseBoardURL(util.FirstNonEmpty(co.BaseURL, co.Slug))
	if err != nil {
		return nil, fmt.Errorf("workday: company %q: %w", co.Name, err)
	}
	if t := co.Option("tenant", ""); t != "" {
		b.Tenant = t
	}

	sess := s.newSession()
	endpoint := b.jobsEndpoint()
	slog.DebugContext(ctx, "[ats:workday] endpoint", "company", co.Name, "endpoint", endpoint)

	// Some tenants want the CSRF cookie, others answer without it.
	if err := s.bootstrap(ctx, sess, b); errors.Is(err, types.ErrBlocked) {
		return nil, err
	}

	var out []domain.RawPosting
	for offset := 0; offset <= maxOffset; offset += pageSize {
		jr, err := s.page(ctx, sess, b, offset)
		if err != nil {
			return nil, err
		}
		if len(jr.JobPostings) == 0 {
			break
		}
		for _, p := range jr.JobPostings {
			title := util.CleanText(p.Title)
			jobURL := b.absoluteJobURL(p)
			if title == "" || jobURL == "" {
				continue
			}
			out = append(out, domain.RawPosting{
				Title:    title,
				Location: util.NormalizeLocation(util.FirstNonEmpty(p.LocationsText, p.Location)),
				URL:      jobURL,
				Company:  co.Name,
			})
		}
		if jr.Total > 0 && offset+pageSize >= jr.Total {
			break
		}
	}

	slog.DebugContext(ctx, "[ats:workday] fetched", "company", co.Name, "postings", len(out))
	return out, nil
}

// page posts one page request. A 4xx before any successful bootstrap gets
// exactly one bootstrap and retry.
func (s *Scraper) page(ctx context.Context, sess *session, b board, offset int) (jobsResponse, error) {
	var jr jobsResponse
	payload, err := json.Marshal(jobsRequest{
		AppliedFacets: map[string]any{},
		Limit:         pageSize,
		Offset:        offset,
	})
	if err != nil {
		return jr, err
	}

	data, err := s.post(ctx, sess, b, payload)
	var se *types.StatusError
	if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 && !sess.booted {
		if berr := s.bootstrap(ctx, sess, b); berr != nil {
			return jr, fmt.Errorf("workday post jobs: %w (bootstrap: %v)", err, berr)
		}
		data, err = s.post(ctx, sess, b, payload)
	}
	if err != nil {
		return jr, fmt.Errorf("workday post jobs: %w", err)
	}

	if err := json.Unmarshal(data, &jr); err != nil {
		return jr, types.ParseError(fmt.Errorf("workday decode: %w body=%s", err, util.Truncate(string(data), 240)))
	}
	return jr, nil
}

func (s *Scraper) post(ctx context.Context, sess *session, b board, payload []byte) ([]byte, error) {
	endpoint := b.jobsEndpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", fmt.Sprintf("%s://%s", b.Scheme, b.Host))
	req.Header.Set("Referer", strings.TrimRight(b.URL, "/"))
	req.Header.Set("Accept-Language", util.FirstNonEmpty(b.Locale, "en-US"))
	if sess.csrf != "" {
		req.Header.Set("x-calypso-csrf-token", sess.csrf)
	}

	res, err := util.Do(ctx, sess.hc, s.limiter, req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, types.NetworkError(err)
	}
	return data, nil
}

// bootstrap loads the public board page so the jar picks up the session
// cookies, and records the CSRF token if one was issued.
func (s *Scraper) bootstrap(ctx context.Context, sess *session, b board) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", util.FirstNonEmpty(b.Locale, "en-US"))
	req.Header.Set("User-Agent", util.UserAgent)

	if err := s.limiter.WaitURL(ctx, b.URL); err != nil {
		return err
	}
	resp, err := sess.hc.Do(req)
	if err != nil {
		return types.NetworkError(err)
	}
	defer resp.Body.Close()

	preview, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_, _ = io.Copy(io.Discard, resp.Body)

	if looksLikeCloudflareBlock(resp, string(preview)) {
		return fmt.Errorf("workday %s: %w", b.Host, types.ErrBlocked)
	}

	u, _ := url.Parse(b.URL)
	for _, c := range sess.hc.Jar.Cookies(u) {
		if c.Name == "CALYPSO_CSRF_TOKEN" && c.Value != "" {
			sess.csrf = c.Value
			sess.booted = true
			return nil
		}
	}
	return fmt.Errorf("workday bootstrap: missing CALYPSO_CSRF_TOKEN cookie (status=%d)", resp.StatusCode)
}

func parseBoardURL(raw string) (board, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return board{}, errors.New("empty board url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return board{}, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Host == "" {
		return board{}, fmt.Errorf("missing host in %q", raw)
	}

	parts := strings.Split(u.Hostname(), ".")
	if len(parts) < 3 {
		return board{}, fmt.Errorf("unexpected host %q", u.Host)
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return board{}, fmt.Errorf("unexpected path %q", u.Path)
	}

	locale := ""
	if len(segs) >= 2 && looksLikeLocale(segs[0]) {
		locale = normalizeLocale(segs[0])
		segs = segs[1:]
	}

	return board{
		URL:    u.String(),
		Scheme: u.Scheme,
		Host:   u.Host,
		Tenant: parts[0],
		Site:   segs[len(segs)-1],
		Locale: locale,
	}, nil
}

// looksLikeLocale accepts en-US, en-us and the like.
func looksLikeLocale(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != '-' {
		return false
	}
	return isAlpha(s[0:2]) && isAlpha(s[3:5])
}

func normalizeLocale(s string) string {
	return strings.ToLower(s[0:2]) + "-" + strings.ToUpper(s[3:5])
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

func (b board) jobsEndpoint() string {
	base := fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", b.Scheme, b.Host, b.Tenant, b.Site)
	if b.Locale == "" {
		return base
	}
	return base + "?locale=" + url.QueryEscape(b.Locale)
}

func (b board) absoluteJobURL(p jobPosting) string {
	if p.ExternalURL != "" {
		return strings.TrimSpace(p.ExternalURL)
	}
	path := strings.TrimSpace(p.ExternalPath)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	prefix := ""
	if b.Locale != "" {
		prefix = "/" + b.Locale
	}
	return fmt.Sprintf("%s://%s%s/%s%s", b.Scheme, b.Host, prefix, b.Site, path)
}

func looksLikeCloudflareBlock(resp *http.Response, bodyPreview string) bool {
	server := strings.ToLower(resp.Header.Get("Server"))
	if strings.Contains(server, "cloudflare") && resp.Header.Get("CF-RAY") != "" {
		return true
	}

	low := strings.ToLower(bodyPreview)
	if strings.Contains(low, "/cdn-cgi/") ||
		(strings.Contains(low, "cloudflare") && strings.Contains(low, "checking your browser")) ||
		(strings.Contains(low, "attention required") && strings.Contains(low, "cloudflare")) {
		return true
	}

	return resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests
}
