// Package markread handles flipping one notification to read. Marking an
// unknown or already read id is a no-op, the handler still returns the
// refreshed user.
package markread

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/inspec-ai/account-service/internal/http-server/mware"
	"github.com/inspec-ai/account-service/internal/http-server/response"
	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/models"
)

// ReadMarker flips the read flag of one notification.
type ReadMarker interface {
	MarkRead(ctx context.Context, email, id string) (*models.User, error)
}

// New returns the PATCH /notifications/{id}/read handler.
func New(log *slog.Logger, service ReadMarker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.markread"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		email, ok := mware.GetEmail(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("not authenticated"))

			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("missing notification id"))

			return
		}

		user, err := service.MarkRead(r.Context(), email, id)
		if err != nil {
			log.Error("failed to mark notification read", sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to mark notification read"))

			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"user": user,
		}))
	}
}
