package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/search"
	"jobsearch-engine/internal/service"
	"jobsearch-engine/internal/store"
)

const defaultListLimit = 20

type RunsHandler struct {
	DB   *sql.DB
	Hub  *events.Hub
	Runs Runs
	Base context.Context
}

type statusResponse struct {
	Running bool          `json:"running"`
	Last    *lastRunBrief `json:"last,omitempty"`
}

type lastRunBrief struct {
	RunID      string        `json:"run_id"`
	Counts     search.Counts `json:"counts"`
	NewMatches int           `json:"new_matches"`
	Dir        string        `json:"dir,omitempty"`
}

func (h RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Running: h.Runs.Running()}
	if rep, ok := h.Runs.Last(); ok {
		resp.Last = &lastRunBrief{
			RunID:      rep.Result.RunID,
			Counts:     rep.Result.Counts,
			NewMatches: rep.NewMatches,
			Dir:        rep.Dir,
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Trigger starts a run in the background and answers 202 right away.
func (h RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	base := h.Base
	if base == nil {
		base = context.WithoutCancel(r.Context())
	}
	err := h.Runs.Start(base, func(rep service.Report, err error) {
		if err != nil {
			slog.ErrorContext(base, "[http] triggered run failed", "error", err)
			if rep.Result.RunID == "" {
				return
			}
		}
		if h.Hub != nil {
			events.Publisher{Hub: h.Hub}.RunSaved(rep.Result.RunID, rep.NewMatches, rep.Dir)
		}
	})
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.history(w, r) {
		return
	}
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := store.ListRuns(r.Context(), h.DB, limit)
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h RunsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if !h.history(w, r) {
		return
	}
	run, err := store.LatestRun(r.Context(), h.DB)
	h.writeRun(w, r, run, err)
}

func (h RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.history(w, r) {
		return
	}
	run, err := store.GetRun(r.Context(), h.DB, r.PathValue("id"))
	h.writeRun(w, r, run, err)
}

func (h RunsHandler) writeRun(w http.ResponseWriter, r *http.Request, run store.Run, err error) {
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, run)
}

func (h RunsHandler) history(w http.ResponseWriter, r *http.Request) bool {
	if h.DB == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "history_disabled", "run history is not enabled")
		return false
	}
	return true
}
