package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/service"
)

// Runs is the run control the API needs. *service.Service implements it.
type Runs interface {
	Running() bool
	Last() (service.Report, bool)
	// Start begins a background run or fails with service.ErrRunning.
	Start(ctx context.Context, done func(service.Report, error)) error
}

type Deps struct {
	// DB holds the run history; nil disables the history routes.
	DB *sql.DB

	Hub  *events.Hub
	Runs Runs

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// BaseContext bounds runs triggered over HTTP. They outlive the
	// request that started them.
	BaseContext context.Context
}
