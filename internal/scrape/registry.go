// Package scrape maps a company's adapter type to the adapter that fetches
// its postings.
package scrape

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/careers"
	"jobsearch-engine/internal/scrape/greenhouse"
	"jobsearch-engine/internal/scrape/lever"
	"jobsearch-engine/internal/scrape/smartrecruiters"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
	"jobsearch-engine/internal/scrape/workday"
)

// Registry holds one adapter per type. Adapters keep no per-company state,
// so one instance serves every company of that type concurrently.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]types.Adapter
}

// NewRegistry returns a registry with every built-in adapter registered.
// hc and limiter are shared by all of them.
func NewRegistry(hc *http.Client, limiter *util.HostLimiter) *Registry {
	if hc == nil {
		hc = util.NewClient()
	}
	r := &Registry{adapters: map[string]types.Adapter{}}
	r.Register(greenhouse.New(hc, limiter))
	r.Register(lever.New(hc, limiter))
	r.Register(smartrecruiters.New(hc, limiter))
	r.Register(workday.New(hc, limiter))
	r.Register(careers.New(hc, limiter))
	return r
}

// Register adds a under a.Name(), replacing any adapter of that name.
func (r *Registry) Register(a types.Adapter) {
	r.RegisterAs(a.Name(), a)
}

func (r *Registry) RegisterAs(name string, a types.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[strings.ToLower(strings.TrimSpace(name))] = a
}

// AdapterFor returns the adapter configured for co.
func (r *Registry) AdapterFor(co domain.Company) (types.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[strings.ToLower(strings.TrimSpace(co.Adapter))]
	if !ok {
		return nil, fmt.Errorf("company %q: %w %q", co.Name, types.ErrUnknownAdapter, co.Adapter)
	}
	return a, nil
}

// Names lists the registered adapter types, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
