package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var locationSelectors = []string{
	".location",
	".job__location",
	".opening .location",
	"[itemprop='jobLocation']",
	"[data-qa='location']",
	"[data-testid='job-location']",
	"[data-testid='location']",
}

// FindLocation looks for a location inside sel using the selectors common
// to hosted job boards, then falls back to "Location: ..." labels in text.
func FindLocation(sel *goquery.Selection) string {
	for _, css := range locationSelectors {
		if t := CleanText(sel.Find(css).First().Text()); t != "" {
			return NormalizeLocation(t)
		}
	}
	return NormalizeLocation(ExtractLabeledLocation(sel.Text()))
}

// ExtractLabeledLocation returns the text after a "Location:" style label.
func ExtractLabeledLocation(s string) string {
	low := strings.ToLower(s)
	for _, lab := range []string{"job location:", "locations:", "location:"} {
		i := strings.Index(low, lab)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(s[i+len(lab):])
		for _, cut := range []string{"\n", "\r", " | ", " · "} {
			if j := strings.Index(rest, cut); j >= 0 {
				rest = rest[:j]
			}
		}
		rest = CleanText(rest)
		if rest != "" && len(rest) <= 80 {
			return rest
		}
	}
	return ""
}
