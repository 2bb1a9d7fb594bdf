// Package register handles account creation.
package register

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

// Request is the registration body.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=6"`
}

// Registrator creates a new account.
type Registrator interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
}

// New returns the POST /register handler.
func New(log *slog.Logger, service Registrator) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.register"

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

		user, err := service.Register(r.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			log.Error("registration failed", sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to register user"))

			return
		}

		log.Info("user registered", slog.String("email", user.Email))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"user": user,
		}))
	}
}
