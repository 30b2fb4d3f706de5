package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"jobsearch-engine/internal/domain"
)

// ErrInvalid matches every *ValidationError.
var ErrInvalid = errors.New("invalid configuration")

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Errors, "\n- ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// What each adapter type needs to locate a company's board.
var (
	needsSlug = map[string]bool{"lever": true, "smartrecruiters": true}
	needsURL  = map[string]bool{"workday": true, "careers": true}
)

// NormalizeAndValidate trims every field, lower-cases adapter names and
// turns the titles into targets. Every problem is reported, not only the
// first one.
func NormalizeAndValidate(companies []domain.Company, titles []string, adapters []string) (Config, Validation) {
	var res Validation
	out := Config{Companies: make([]domain.Company, 0, len(companies))}

	if len(companies) == 0 {
		res.addWarn("no companies configured; the run will be empty")
	}

	seen := map[string]int{}
	for i, c := range companies {
		c.Name = strings.TrimSpace(c.Name)
		c.Adapter = strings.ToLower(strings.TrimSpace(c.Adapter))
		c.Slug = strings.TrimSpace(c.Slug)
		c.BaseURL = strings.TrimSpace(c.BaseURL)

		at := fmt.Sprintf("companies[%d]", i)
		if c.Name == "" {
			res.addErr("%s.name is required", at)
		} else {
			at = fmt.Sprintf("companies[%d] (%s)", i, c.Name)
			key := strings.ToLower(c.Name)
			if j, dup := seen[key]; dup {
				res.addErr("%s: duplicate name, first defined at companies[%d]", at, j)
			} else {
				seen[key] = i
			}
		}

		switch {
		case c.Adapter == "":
			res.addErr("%s.adapter is required", at)
		case len(adapters) > 0 && !slices.Contains(adapters, c.Adapter):
			res.addErr("%s: unknown adapter %q (known: %s)", at, c.Adapter, strings.Join(adapters, ", "))
		case needsSlug[c.Adapter] && c.Slug == "":
			res.addErr("%s.slug is required for adapter %s", at, c.Adapter)
		case needsURL[c.Adapter] && c.BaseURL == "":
			res.addErr("%s.url is required for adapter %s", at, c.Adapter)
		case c.Slug == "" && c.BaseURL == "":
			res.addErr("%s: slug or url is required", at)
		}

		if c.BaseURL != "" {
			u, err := url.Parse(c.BaseURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				res.addErr("%s.url %q is not an absolute http(s) url", at, c.BaseURL)
			}
		}

		out.Companies = append(out.Companies, c)
	}

	for i, t := range titles {
		if domain.NormalizeTitle(t) == "" {
			res.addWarn("titles[%d] is empty and was ignored", i)
		}
	}
	out.Titles = domain.NewTargets(titles)
	if n := countNonEmpty(titles) - len(out.Titles); n > 0 {
		res.addWarn("%d duplicate title(s) ignored", n)
	}
	if len(out.Titles) == 0 {
		res.addWarn("no target titles configured; nothing can match")
	}

	out.Warnings = res.Warnings
	return out, res
}

func countNonEmpty(titles []string) int {
	n := 0
	for _, t := range titles {
		if domain.NormalizeTitle(t) != "" {
			n++
		}
	}
	return n
}
