// Package careers scrapes a company's own careers page when it is not hosted
// on a supported ATS. Postings are located with CSS selectors taken from the
// company options:
//
//	selector           one element per posting (default "a[href]")
//	title_selector     title inside the posting element (default: its text)
//	location_selector  location inside the posting element
package careers

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
	"github.com/andybalholm/cascadia"
)

const defaultSelector = "a[href]"

type Scraper struct {
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(hc *http.Client, limiter *util.HostLimiter) *Scraper {
	return &Scraper{hc: hc, limiter: limiter}
}

func (s *Scraper) Name() string { return "careers" }

func (s *Scraper) Fetch(ctx context.Context, co domain.Company) ([]domain.RawPosting, error) {
	pageURL := strings.TrimSpace(co.BaseURL)
	if pageURL == "" {
		return nil, fmt.Errorf("careers: company %q has no url", co.Name)
	}
	res, err := util.Get(ctx, s.hc, s.limiter, pageURL, "text/html")
	if err != nil {
		return nil, fmt.Errorf("careers get: %w", err)
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, types.ParseError(fmt.Errorf("careers parse: %w", err))
	}

	sel := co.Option("selector", defaultSelector)
	// goquery treats an invalid selector as matching nothing.
	if _, err := cascadia.Compile(sel); err != nil {
		return nil, types.ParseError(fmt.Errorf("careers selector %q: %w", sel, err))
	}
	items := doc.Find(sel)
	titleSel := co.Option("title_selector", "")
	locSel := co.Option("location_selector", "")

	var out []domain.RawPosting
	items.Each(func(_ int, item *goquery.Selection) {
		link := item
		if goquery.NodeName(item) != "a" {
			link = item.Find("a[href]").First()
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		abs, err := url.Parse(util.Resolve(pageURL, href))
		if err != nil || (abs.Scheme != "http" && abs.Scheme != "https") {
			return
		}

		title := util.CleanText(item.Text())
		if titleSel != "" {
			title = util.CleanText(item.Find(titleSel).First().Text())
		}
		if title == "" {
			return
		}

		var loc string
		if locSel != "" {
			loc = util.NormalizeLocation(item.Find(locSel).First().Text())
		} else {
			loc = util.FindLocation(item)
		}

		out = append(out, domain.RawPosting{
			Title:    title,
			Location: loc,
			URL:      abs.String(),
			Company:  co.Name,
		})
	})

	slog.DebugContext(ctx, "[careers] fetched", "company", co.Name, "postings", len(out))
	return out, nil
}
