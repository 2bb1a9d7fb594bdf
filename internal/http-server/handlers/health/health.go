// Package health handles the liveness probe. It reports the database
// readiness alongside the process status.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/inspec-ai/account-service/internal/http-server/response"
	"github.com/inspec-ai/account-service/internal/lib/sl"
)

// ReadinessChecker pings the backing store.
type ReadinessChecker interface {
	CheckDatabaseReady(ctx context.Context) error
}

// New returns the GET /health handler.
func New(log *slog.Logger, checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.health"

		if err := checker.CheckDatabaseReady(r.Context()); err != nil {
			log.Error("database not ready", slog.String("op", op), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("database not ready"))

			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"status": "ok",
		}))
	}
}
