// Package login handles credential checks and session token issue.
package login

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/inspec-ai/account-service/internal/http-server/response"
	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/models"
)

// Request is the login body.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Authenticator checks credentials and returns the account with a token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

// StatusRefresher recomputes the subscription status so the login response
// carries the current state, not the last written one.
type StatusRefresher interface {
	CheckSubscriptionStatus(ctx context.Context, email string) (*models.User, error)
}

// New returns the POST /login handler.
func New(log *slog.Logger, service Authenticator, refresher StatusRefresher) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.login"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))

			return
		}

		if err := validate.Struct(req); err != nil {
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))

			return
		}

		user, token, err := service.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			log.Error("login failed", sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid credentials"))

			return
		}

		refreshed, err := refresher.CheckSubscriptionStatus(r.Context(), user.Email)
		if err != nil {
			log.Warn("failed to refresh subscription status on login", sl.Err(err))
		} else {
			user = refreshed
		}

		log.Info("user logged in", slog.String("email", user.Email))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"token": token,
			"user":  user,
		}))
	}
}
