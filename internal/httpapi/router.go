package httpapi

import "net/http"

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", HealthHandler{}.Health)

	rh := RunsHandler{DB: d.DB, Hub: d.Hub, Runs: d.Runs, Base: d.BaseContext}
	mux.HandleFunc("GET /status", rh.Status)
	mux.HandleFunc("GET /runs", rh.List)
	mux.HandleFunc("POST /runs", rh.Trigger)
	mux.HandleFunc("GET /runs/latest", rh.Latest)
	mux.HandleFunc("GET /runs/{id}", rh.Get)

	if d.Hub != nil {
		mux.HandleFunc("GET /events", EventsHandler{Hub: d.Hub}.ServeSSE)
	}
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}
	return mux
}

// NewHandler wraps the mux in the standard middleware chain.
func NewHandler(d Deps) http.Handler {
	return Chain(NewMux(d), RequestID, Recover, AccessLog, Cors)
}
