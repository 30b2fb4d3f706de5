package smartrecruiters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

const (
	DefaultAPIBase  = "https://api.smartrecruiters.com"
	DefaultJobsBase = "https://jobs.smartrecruiters.com"

	pageSize  = 100
	maxOffset = 5000
)

type Scraper struct {
	hc       *http.Client
	limiter  *util.HostLimiter
	apiBase  string
	jobsBase string
}

func New(hc *http.Client, limiter *util.HostLimiter) *Scraper {
	return &Scraper{hc: hc, limiter: limiter, apiBase: DefaultAPIBase, jobsBase: DefaultJobsBase}
}

func (s *Scraper) WithAPIBase(base string) *Scraper {
	s.apiBase = strings.TrimRight(base, "/")
	return s
}

func (s *Scraper) Name() string { return "smartrecruiters" }

// Public API answers { "content": [...], "totalFound": N, "offset": O, "limit": L }.
type postingsResponse struct {
	Content    []posting `json:"content"`
	TotalFound int       `json:"totalFound"`
}

type posting struct {
	ID       string `json:"id"`
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Ref      string `json:"ref"`
	Location struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
}

func (s *Scraper) Fetch(ctx context.Context, co domain.Company) ([]domain.RawPosting, error) {
	slug := strings.TrimSpace(co.Slug)
	if slug == "" {
		return nil, fmt.Errorf("smartrecruiters: company %q has no slug", co.Name)
	}
	base := fmt.Sprintf("%s/v1/companies/%s/postings", s.apiBase, url.PathEscape(slug))

	var out []domain.RawPosting
	for offset := 0; offset <= maxOffset; offset += pageSize {
		page, err := s.fetchPage(ctx, fmt.Sprintf("%s?limit=%d&offset=%d", base, pageSize, offset))
		if err != nil {
			return nil, err
		}
		if len(page.Content) == 0 {
			break
		}
		for _, p := range page.Content {
			title := util.CleanText(p.Name)
			id := util.FirstNonEmpty(p.ID, p.UUID)
			if title == "" || id == "" {
				continue
			}
			loc := util.JoinNonEmpty(", ", p.Location.City, p.Location.Region, p.Location.Country)
			if p.Location.Remote {
				loc = util.JoinNonEmpty(", ", "Remote", loc)
			}
			out = append(out, domain.RawPosting{
				Title:    title,
				Location: util.NormalizeLocation(loc),
				URL:      fmt.Sprintf("%s/%s/%s", s.jobsBase, slug, id),
				Company:  co.Name,
			})
		}
		if page.TotalFound > 0 && offset+pageSize >= page.TotalFound {
			break
		}
	}

	slog.DebugContext(ctx, "[ats:smartrecruiters] fetched", "company", co.Name, "postings", len(out))
	return out, nil
}

func (s *Scraper) fetchPage(ctx context.Context, u string) (postingsResponse, error) {
	var pr postingsResponse
	res, err := util.Get(ctx, s.hc, s.limiter, u, "application/json")
	if err != nil {
		return pr, fmt.Errorf("smartrecruiters get: %w", err)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(&pr); err != nil {
		return pr, types.ParseError(fmt.Errorf("smartrecruiters decode: %w", err))
	}
	return pr, nil
}
