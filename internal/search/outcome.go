package search

import (
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
	StatusCancelled Status = "cancelled"
)

// Error kinds recorded next to the adapter kinds of the types package.
const (
	KindTimeout   types.ErrorKind = "timeout"
	KindCancelled types.ErrorKind = "cancelled"
)

type OutcomeError struct {
	Kind    types.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

// Outcome is the result of one company within a run. Error is set exactly
// when Status is not StatusSuccess, and Matches is empty in that case.
type Outcome struct {
	Company string                  `json:"company"`
	Adapter string                  `json:"adapter"`
	Status  Status                  `json:"status"`
	Matches []domain.MatchedPosting `json:"matches"`
	Error   *OutcomeError           `json:"error,omitempty"`
	Elapsed time.Duration           `json:"elapsed_ns"`

	// Fetched is the number of postings the adapter returned.
	Fetched int `json:"fetched"`
	// Duplicates counts matches dropped because an earlier match had the
	// same canonical URL.
	Duplicates int `json:"duplicates"`
}

func (o Outcome) OK() bool { return o.Status == StatusSuccess }

type Counts struct {
	Companies int `json:"companies"`
	Succeeded int `json:"succeeded"`
	// Failed includes cancelled companies.
	Failed    int `json:"failed"`
	TimedOut  int `json:"timed_out"`
	Cancelled int `json:"cancelled"`
	Matches   int `json:"matches"`
}

// RunResult holds one outcome per configured company, in configuration
// order.
type RunResult struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
	Counts     Counts    `json:"counts"`
}

func (r RunResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Matches returns every match of the run, in outcome order.
func (r RunResult) Matches() []domain.MatchedPosting {
	out := make([]domain.MatchedPosting, 0, r.Counts.Matches)
	for _, o := range r.Outcomes {
		out = append(out, o.Matches...)
	}
	return out
}

func CountOutcomes(outs []Outcome) Counts {
	c := Counts{Companies: len(outs)}
	for _, o := range outs {
		switch o.Status {
		case StatusSuccess:
			c.Succeeded++
			c.Matches += len(o.Matches)
		case StatusTimedOut:
			c.TimedOut++
		case StatusCancelled:
			c.Cancelled++
			c.Failed++
		default:
			c.Failed++
		}
	}
	return c
}
