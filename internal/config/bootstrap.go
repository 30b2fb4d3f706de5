package config

import (
	"errors"
	"os"
	"path/filepath"

	"jobsearch-engine/internal/domain"
)

const (
	CompaniesFileName = "companies.yaml"
	TitlesFileName    = "titles.yaml"
)

// Starter files written by EnsureUserConfig.
var (
	StarterCompanies = CompaniesFile{Companies: []domain.Company{
		{Name: "Example Greenhouse", Adapter: "greenhouse", Slug: "example"},
		{Name: "Example Lever", Adapter: "lever", Slug: "example"},
		{Name: "Example SmartRecruiters", Adapter: "smartrecruiters", Slug: "Example"},
		{Name: "Example Workday", Adapter: "workday", BaseURL: "https://example.wd5.myworkdayjobs.com/en-US/External"},
		{
			Name:    "Example Careers",
			Adapter: "careers",
			BaseURL: "https://example.com/careers",
			Options: map[string]string{"selector": "li.job", "title_selector": "a", "location_selector": ".location"},
		},
	}}
	StarterTitles = TitlesFile{Titles: []string{"Software Engineer", "Site Reliability Engineer", "Platform Engineer"}}
)

// EnsureUserConfig writes the starter files into dir unless they exist.
// It returns the paths of both files and which of them were created.
func EnsureUserConfig(dir string) (Paths, []string, error) {
	p := Paths{
		Companies: filepath.Join(dir, CompaniesFileName),
		Titles:    filepath.Join(dir, TitlesFileName),
	}

	var created []string
	for _, f := range []struct {
		path string
		v    any
	}{
		{p.Companies, StarterCompanies},
		{p.Titles, StarterTitles},
	} {
		_, err := os.Stat(f.path)
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return p, created, err
		}
		if err := SaveAtomic(f.path, f.v); err != nil {
			return p, created, err
		}
		created = append(created, f.path)
	}
	return p, created, nil
}
