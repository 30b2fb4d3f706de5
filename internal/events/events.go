package events

import (
	"encoding/json"
	"time"
)

// Event types published while a run executes.
const (
	TypePing            = "ping"
	TypeRunStarted      = "run_started"
	TypeCompanyStarted  = "company_started"
	TypeCompanyFinished = "company_finished"
	TypeRunFinished     = "run_finished"
	TypeRunSaved        = "run_saved"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	RunID     string          `json:"run_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	return makeEvent(Event{Type: typ, Version: v, RequestID: reqID}, data)
}

func makeEvent(e Event, data any) string {
	if data != nil {
		b, _ := json.Marshal(data)
		e.Data = b
	}
	e.At = time.Now().UTC()
	b, _ := json.Marshal(e)
	return string(b)
}
