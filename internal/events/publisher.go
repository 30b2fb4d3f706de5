package events

import (
	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/search"
)

// Publisher turns run progress into hub events.
type Publisher struct {
	Hub *Hub
}

var _ search.Observer = Publisher{}

type runStarted struct {
	Companies int `json:"companies"`
}

type companyStarted struct {
	Company string `json:"company"`
	Adapter string `json:"adapter"`
}

type companyFinished struct {
	Company   string               `json:"company"`
	Status    search.Status        `json:"status"`
	Matches   int                  `json:"matches"`
	ElapsedMS int64                `json:"elapsed_ms"`
	Error     *search.OutcomeError `json:"error,omitempty"`
}

func (p Publisher) publish(runID, typ string, data any) {
	p.Hub.Publish(makeEvent(Event{Type: typ, Version: 1, RunID: runID}, data))
}

func (p Publisher) RunStarted(runID string, companies int) {
	p.publish(runID, TypeRunStarted, runStarted{Companies: companies})
}

func (p Publisher) CompanyStarted(runID string, co domain.Company) {
	p.publish(runID, TypeCompanyStarted, companyStarted{Company: co.Name, Adapter: co.Adapter})
}

func (p Publisher) CompanyFinished(runID string, o search.Outcome) {
	p.publish(runID, TypeCompanyFinished, companyFinished{
		Company:   o.Company,
		Status:    o.Status,
		Matches:   len(o.Matches),
		ElapsedMS: o.Elapsed.Milliseconds(),
		Error:     o.Error,
	})
}

func (p Publisher) RunFinished(r search.RunResult) {
	p.publish(r.RunID, TypeRunFinished, r.Counts)
}

type runSaved struct {
	NewMatches int    `json:"new_matches"`
	Dir        string `json:"dir,omitempty"`
}

// RunSaved announces that a run's results were stored.
func (p Publisher) RunSaved(runID string, newMatches int, dir string) {
	p.publish(runID, TypeRunSaved, runSaved{NewMatches: newMatches, Dir: dir})
}
