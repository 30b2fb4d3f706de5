package search

import (
	"fmt"
	"log/slog"

	"jobsearch-engine/internal/domain"
)

// Observer is notified about run progress. Company callbacks arrive from
// task goroutines, so implementations must be safe for concurrent use.
// Observers registered with WithObserver that panic are logged and skipped;
// the run goes on.
type Observer interface {
	RunStarted(runID string, companies int)
	CompanyStarted(runID string, co domain.Company)
	CompanyFinished(runID string, o Outcome)
	RunFinished(r RunResult)
}

type NopObserver struct{}

func (NopObserver) RunStarted(string, int)               {}
func (NopObserver) CompanyStarted(string, domain.Company) {}
func (NopObserver) CompanyFinished(string, Outcome)      {}
func (NopObserver) RunFinished(RunResult)                {}

// Observers fans notifications out in slice order. A panic in one observer
// does not keep the others from being notified.
type Observers []Observer

func (obs Observers) RunStarted(runID string, companies int) {
	for _, o := range obs {
		notify(o, "RunStarted", func() { o.RunStarted(runID, companies) })
	}
}

func (obs Observers) CompanyStarted(runID string, co domain.Company) {
	for _, o := range obs {
		notify(o, "CompanyStarted", func() { o.CompanyStarted(runID, co) })
	}
}

func (obs Observers) CompanyFinished(runID string, out Outcome) {
	for _, o := range obs {
		notify(o, "CompanyFinished", func() { o.CompanyFinished(runID, out) })
	}
}

func (obs Observers) RunFinished(r RunResult) {
	for _, o := range obs {
		notify(o, "RunFinished", func() { o.RunFinished(r) })
	}
}

func notify(o Observer, callback string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("observer panic",
				"observer", fmt.Sprintf("%T", o),
				"callback", callback,
				"panic", p,
			)
		}
	}()
	fn()
}
