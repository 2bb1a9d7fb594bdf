// Package remove handles the admin account removal. Projects, team links
// and notifications of the user go with it.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/inspec-ai/account-service/internal/http-server/response"
	"github.com/inspec-ai/account-service/internal/lib/sl"
)

// UserRemover deletes an account and its owned records.
type UserRemover interface {
	DeleteUser(ctx context.Context, email string) error
}

// New returns the DELETE /users/{email} handler.
func New(log *slog.Logger, service UserRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.remove"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		email := chi.URLParam(r, "email")
		if email == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("missing user email"))

			return
		}

		if err := service.DeleteUser(r.Context(), email); err != nil {
			log.Error("failed to delete user", slog.String("email", email), sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to delete user"))

			return
		}

		log.Info("user deleted", slog.String("email", email))
		render.JSON(w, r, response.OK())
	}
}
