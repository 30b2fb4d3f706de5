package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/match"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

// Resolver returns the adapter that fetches a company's postings.
// *scrape.Registry implements it.
type Resolver interface {
	AdapterFor(co domain.Company) (types.Adapter, error)
}

type ResolverFunc func(co domain.Company) (types.Adapter, error)

func (f ResolverFunc) AdapterFor(co domain.Company) (types.Adapter, error) { return f(co) }

// Runner executes the fetch-and-match task of a single company.
type Runner struct {
	resolver Resolver
}

func NewRunner(resolver Resolver) *Runner {
	return &Runner{resolver: resolver}
}

type fetchResult struct {
	postings []domain.RawPosting
	err      error
}

// Execute fetches co's postings under a deadline of timeout and matches them
// against targets. It always returns an outcome; adapter errors, panics,
// the deadline and cancellation of ctx are all recorded in it.
//
// On timeout or cancellation the adapter call is abandoned: its context is
// cancelled and whatever it returns afterwards lands in a buffered channel
// nobody reads.
func (r *Runner) Execute(ctx context.Context, co domain.Company, targets []domain.TargetTitle, timeout time.Duration) (out Outcome) {
	start := time.Now()
	out = Outcome{Company: co.Name, Adapter: co.Adapter, Matches: []domain.MatchedPosting{}}
	defer func() {
		if p := recover(); p != nil {
			out = failed(out, types.KindUnknown, fmt.Errorf("panic: %v", p))
		}
		out.Elapsed = time.Since(start)
	}()

	if ctx.Err() != nil {
		return interrupted(ctx, out, timeout)
	}

	adapter, err := r.resolver.AdapterFor(co)
	if err != nil {
		return failed(out, types.KindUnknown, err)
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fetchResult{err: fmt.Errorf("adapter panic: %v", p)}
			}
		}()
		postings, err := adapter.Fetch(tctx, co)
		done <- fetchResult{postings: postings, err: err}
	}()

	select {
	case res := <-done:
		// A result arriving at or after the deadline is late, whatever it
		// holds. An adapter giving up because its context ended is a
		// timeout or cancellation too, not an adapter failure.
		if expired(tctx) {
			return interrupted(ctx, out, timeout)
		}
		if res.err != nil {
			slog.DebugContext(ctx, "fetch failed", "error", res.err)
			return failed(out, types.Classify(res.err), res.err)
		}
		return succeeded(out, res.postings, targets)
	case <-tctx.Done():
		return interrupted(ctx, out, timeout)
	}
}

// expired reports whether ctx is done or its deadline has been reached.
func expired(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	dl, ok := ctx.Deadline()
	return ok && !time.Now().Before(dl)
}

func succeeded(out Outcome, postings []domain.RawPosting, targets []domain.TargetTitle) Outcome {
	out.Status = StatusSuccess
	out.Fetched = len(postings)
	out.Matches, out.Duplicates = dedupe(match.Postings(postings, targets))
	return out
}

func failed(out Outcome, kind types.ErrorKind, err error) Outcome {
	if kind == "" {
		kind = types.KindUnknown
	}
	msg := err.Error()
	if msg == "" {
		msg = string(kind) + " error"
	}
	out.Status = StatusFailed
	out.Matches = []domain.MatchedPosting{}
	out.Error = &OutcomeError{Kind: kind, Message: msg}
	return out
}

// interrupted records a task whose context ended first. The parent being
// done means the whole run was cancelled; otherwise the company's own
// deadline fired.
func interrupted(parent context.Context, out Outcome, timeout time.Duration) Outcome {
	out.Matches = []domain.MatchedPosting{}
	if expired(parent) {
		cause := parent.Err()
		if cause == nil {
			cause = context.DeadlineExceeded
		}
		out.Status = StatusCancelled
		out.Error = &OutcomeError{Kind: KindCancelled, Message: "run cancelled: " + cause.Error()}
		return out
	}
	out.Status = StatusTimedOut
	out.Error = &OutcomeError{Kind: KindTimeout, Message: fmt.Sprintf("no response within %s", timeout)}
	return out
}

// dedupe drops matches whose canonical URL was already seen, keeping the
// first. Matches without a URL are always kept.
func dedupe(in []domain.MatchedPosting) ([]domain.MatchedPosting, int) {
	out := make([]domain.MatchedPosting, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	dups := 0
	for _, m := range in {
		key := util.CanonicalURL(m.URL)
		if key != "" {
			if _, ok := seen[key]; ok {
				dups++
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, m)
	}
	return out, dups
}
