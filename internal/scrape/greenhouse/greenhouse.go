package greenhouse

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

const DefaultBoardBase = "https://boards.greenhouse.io"

// Scraper reads a hosted Greenhouse job board page, one company per call.
type Scraper struct {
	hc        *http.Client
	limiter   *util.HostLimiter
	boardBase string
}

func New(hc *http.Client, limiter *util.HostLimiter) *Scraper {
	return &Scraper{hc: hc, limiter: limiter, boardBase: DefaultBoardBase}
}

// WithBoardBase points the scraper at another host, used by tests.
func (s *Scraper) WithBoardBase(base string) *Scraper {
	s.boardBase = strings.TrimRight(base, "/")
	return s
}

func (s *Scraper) Name() string { return "greenhouse" }

func (s *Scraper) boardURL(co domain.Company) (string, error) {
	if co.BaseURL != "" {
		return co.BaseURL, nil
	}
	slug := strings.TrimSpace(co.Slug)
	if slug == "" {
		return "", fmt.Errorf("greenhouse: company %q has neither slug nor url", co.Name)
	}
	return s.boardBase + "/" + url.PathEscape(slug), nil
}

func (s *Scraper) Fetch(ctx context.Context, co domain.Company) ([]domain.RawPosting, error) {
	boardURL, err := s.boardURL(co)
	if err != nil {
		return nil, err
	}
	board, err := url.Parse(boardURL)
	if err != nil {
		return nil, fmt.Errorf("greenhouse board url: %w", err)
	}

	res, err := util.Get(ctx, s.hc, s.limiter, boardURL, "text/html")
	if err != nil {
		return nil, fmt.Errorf("greenhouse get board: %w", err)
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, types.ParseError(fmt.Errorf("greenhouse parse board html: %w", err))
	}

	// Boards link to /<slug>/jobs/<id> or absolute .../jobs/<id>.
	seen := map[string]bool{}
	var out []domain.RawPosting
	var missing []int
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := util.Resolve(boardURL, href)
		u, err := url.Parse(abs)
		if err != nil || !strings.EqualFold(u.Host, board.Host) {
			return
		}
		jobID := extractJobID(u.Path)
		if jobID == "" || seen[jobID] {
			return
		}
		seen[jobID] = true

		title := util.CleanText(a.Text())
		if looksLikeJunkTitle(title) {
			title = ""
		}
		if title == "" {
			missing = append(missing, len(out))
		}
		out = append(out, domain.RawPosting{
			Title:    title,
			Location: util.FindLocation(a.Closest(".opening, tr, li, div")),
			URL:      abs,
			Company:  co.Name,
		})
	})

	// Some boards wrap titles oddly; the job page h1 is authoritative.
	for _, i := range missing {
		if err := s.hydrate(ctx, &out[i]); err != nil {
			slog.DebugContext(ctx, "[ats:greenhouse] hydrate failed", "url", out[i].URL, "error", err)
		}
	}

	slog.DebugContext(ctx, "[ats:greenhouse] fetched", "company", co.Name, "postings", len(out))
	return out, nil
}

func (s *Scraper) hydrate(ctx context.Context, p *domain.RawPosting) error {
	res, err := util.Get(ctx, s.hc, s.limiter, p.URL, "text/html")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return types.ParseError(err)
	}
	if t := util.CleanText(doc.Find("h1").First().Text()); t != "" {
		p.Title = t
	}
	if p.Location == "" {
		p.Location = util.FindLocation(doc.Selection)
	}
	return nil
}

// extractJobID returns the digits following "/jobs/" in path.
func extractJobID(path string) string {
	_, tail, ok := strings.Cut(path, "/jobs/")
	if !ok {
		return ""
	}
	end := 0
	for end < len(tail) && tail[end] >= '0' && tail[end] <= '9' {
		end++
	}
	return tail[:end]
}

func looksLikeJunkTitle(t string) bool {
	l := strings.ToLower(t)
	return l == "view" || l == "apply" || strings.HasPrefix(l, "view job") || strings.HasPrefix(l, "apply now")
}
