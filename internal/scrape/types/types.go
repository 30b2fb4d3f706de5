package types

import (
	"context"

	"jobsearch-engine/internal/domain"
)

// Adapter fetches the current postings of one company. Implementations must
// return promptly once ctx is done; the caller abandons the call at its
// deadline either way.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, company domain.Company) ([]domain.RawPosting, error)
}

// AdapterFunc lets a plain function act as an Adapter.
type AdapterFunc func(ctx context.Context, company domain.Company) ([]domain.RawPosting, error)

func (f AdapterFunc) Name() string { return "func" }

func (f AdapterFunc) Fetch(ctx context.Context, company domain.Company) ([]domain.RawPosting, error) {
	return f(ctx, company)
}
