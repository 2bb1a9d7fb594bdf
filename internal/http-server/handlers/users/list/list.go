// Package list handles the admin user directory with project counts.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/inspec-ai/account-service/internal/http-server/response"
	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/models"
)

// UserLister returns every non-admin account.
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// New returns the GET /users handler.
func New(log *slog.Logger, service UserLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.list"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		users, err := service.ListUsers(r.Context())
		if err != nil {
			log.Error("failed to list users", sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to list users"))

			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"users": users,
		}))
	}
}
