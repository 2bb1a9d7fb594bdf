// Package markallread handles flipping every notification of the session
// user to read.
package markallread

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/inspec-ai/account-service/internal/http-server/mware"
	"github.com/inspec-ai/account-service/internal/http-server/response"
	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/models"
)

// AllReadMarker flips every notification of the user to read.
type AllReadMarker interface {
	MarkAllRead(ctx context.Context, email string) (*models.User, error)
}

// New returns the POST /notifications/read-all handler.
func New(log *slog.Logger, service AllReadMarker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.markallread"

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

		user, err := service.MarkAllRead(r.Context(), email)
		if err != nil {
			log.Error("failed to mark notifications read", sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to mark notifications read"))

			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"user": user,
		}))
	}
}
