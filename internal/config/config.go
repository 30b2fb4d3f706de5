package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"jobsearch-engine/internal/domain"

	"gopkg.in/yaml.v3"
)

// CompaniesFile is the layout of companies.yaml.
type CompaniesFile struct {
	Companies []domain.Company `yaml:"companies"`
}

// TitlesFile is the layout of titles.yaml. A bare YAML list of strings is
// accepted as well.
type TitlesFile struct {
	Titles []string `yaml:"titles"`
}

// Config is everything a run needs from the configuration files.
type Config struct {
	Companies []domain.Company
	Titles    []domain.TargetTitle
	// Warnings are problems that do not prevent a run.
	Warnings []string
}

func LoadCompanies(path string) ([]domain.Company, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read companies: %w", err)
	}
	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return nil, fmt.Errorf("parse companies %s: %w", path, err)
	}
	return cf.Companies, nil
}

// LoadTitles returns the raw titles of path in file order.
func LoadTitles(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read titles: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}

	var tf TitlesFile
	err = yaml.Unmarshal(b, &tf)
	if err == nil {
		return tf.Titles, nil
	}
	var list []string
	if lerr := yaml.Unmarshal(b, &list); lerr == nil {
		return list, nil
	}
	return nil, fmt.Errorf("parse titles %s: %w", path, err)
}

// Load reads both files, normalizes them and validates the companies
// against the adapter types in adapters. Validation problems come back as
// a *ValidationError.
func Load(p Paths, adapters []string) (Config, error) {
	companies, err := LoadCompanies(p.Companies)
	if err != nil {
		return Config{}, err
	}
	titles, err := LoadTitles(p.Titles)
	if err != nil {
		return Config{}, err
	}

	cfg, res := NormalizeAndValidate(companies, titles, adapters)
	if !res.OK() {
		return cfg, &ValidationError{Errors: res.Errors}
	}
	return cfg, nil
}

// Paths locates the two configuration files.
type Paths struct {
	Companies string
	Titles    string
}

const (
	EnvCompanies = "JOBSEARCH_COMPANIES"
	EnvTitles    = "JOBSEARCH_TITLES"
)

// OverlayEnv fills empty paths from the environment.
func OverlayEnv(p Paths) Paths {
	if p.Companies == "" {
		p.Companies = os.Getenv(EnvCompanies)
	}
	if p.Titles == "" {
		p.Titles = os.Getenv(EnvTitles)
	}
	return p
}

func (p Paths) Check() error {
	var errs []error
	if p.Companies == "" {
		errs = append(errs, fmt.Errorf("companies file not set (flag --companies or $%s)", EnvCompanies))
	}
	if p.Titles == "" {
		errs = append(errs, fmt.Errorf("titles file not set (flag --titles or $%s)", EnvTitles))
	}
	return errors.Join(errs...)
}
