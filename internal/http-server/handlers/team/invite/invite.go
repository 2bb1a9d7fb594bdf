// Package invite handles the owner's request to add a team member.
package invite

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/inspec-ai/account-service/internal/http-server/mware"
	"github.com/inspec-ai/account-service/internal/http-server/response"
	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/models"
)

// Request is the invite body. The payment proof image is mandatory.
type Request struct {
	MemberEmail       string `json:"member_email" validate:"required,email"`
	PaymentProofImage string `json:"payment_proof_image" validate:"required"`
}

// MemberRequester submits a team member inquiry for the session owner.
type MemberRequester interface {
	RequestAddTeamMember(ctx context.Context, ownerEmail, memberEmail, proofImage string) (*models.User, error)
}

// New returns the POST /team/members handler.
func New(log *slog.Logger, service MemberRequester) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.team.invite"

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

		user, err := service.RequestAddTeamMember(r.Context(), email, req.MemberEmail, req.PaymentProofImage)
		if err != nil {
			log.Error("team member request failed", sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to request team member"))

			return
		}

		log.Info("team member requested",
			slog.String("owner", email), slog.String("member", req.MemberEmail))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"user": user,
		}))
	}
}
