package lever

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

const DefaultAPIBase = "https://api.lever.co"

type Scraper struct {
	hc      *http.Client
	limiter *util.HostLimiter
	apiBase string
}

func New(hc *http.Client, limiter *util.HostLimiter) *Scraper {
	return &Scraper{hc: hc, limiter: limiter, apiBase: DefaultAPIBase}
}

func (s *Scraper) WithAPIBase(base string) *Scraper {
	s.apiBase = strings.TrimRight(base, "/")
	return s
}

func (s *Scraper) Name() string { return "lever" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	Categories struct {
		Location     string   `json:"location"`
		AllLocations []string `json:"allLocations"`
		Team         string   `json:"team"`
	} `json:"categories"`
	WorkplaceType string `json:"workplaceType"`
}

func (s *Scraper) Fetch(ctx context.Context, co domain.Company) ([]domain.RawPosting, error) {
	slug := strings.TrimSpace(co.Slug)
	if slug == "" {
		return nil, fmt.Errorf("lever: company %q has no slug", co.Name)
	}
	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", s.apiBase, url.PathEscape(slug))

	res, err := util.Get(ctx, s.hc, s.limiter, apiURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}
	defer res.Body.Close()

	var postings []leverPosting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, types.ParseError(fmt.Errorf("lever decode: %w", err))
	}

	out := make([]domain.RawPosting, 0, len(postings))
	for _, p := range postings {
		title := util.CleanText(p.Text)
		if p.HostedURL == "" || title == "" {
			continue
		}
		loc := p.Categories.Location
		if loc == "" {
			loc = strings.Join(p.Categories.AllLocations, ", ")
		}
		if loc == "" && strings.EqualFold(p.WorkplaceType, "remote") {
			loc = "Remote"
		}
		out = append(out, domain.RawPosting{
			Title:    title,
			Location: util.NormalizeLocation(loc),
			URL:      p.HostedURL,
			Company:  co.Name,
		})
	}

	slog.DebugContext(ctx, "[ats:lever] fetched", "company", co.Name, "postings", len(out))
	return out, nil
}
