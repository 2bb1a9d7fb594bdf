// Package session handles the current-user endpoint. The returned account
// carries a subscription status freshly recomputed against the clock.
package session

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

// UserProvider returns the account view for the session email.
type UserProvider interface {
	GetUser(ctx context.Context, email string) (*models.User, error)
}

// New returns the GET /me handler.
func New(log *slog.Logger, service UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.session"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		email, ok := mware.GetEmail(r.Context())
		if !ok {
			log.Error("no identity in context")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("not authenticated"))

			return
		}

		user, err := service.GetUser(r.Context(), email)
		if err != nil {
			log.Error("failed to load user", sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to load user"))

			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"user": user,
		}))
	}
}
