// Package request handles plan change submissions for the session user.
package request

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

// Request is the plan change body. The commercial fields accompany CUSTOM
// requests, the proof image accompanies PRO.
type Request struct {
	Plan              string `json:"plan" validate:"required,oneof=free pro custom"`
	CompanyName       string `json:"company_name,omitempty"`
	TeamSize          string `json:"team_size,omitempty"`
	UseCase           string `json:"use_case,omitempty"`
	Phone             string `json:"phone,omitempty"`
	PaymentProofImage string `json:"payment_proof_image,omitempty"`
}

// PlanRequester submits a plan change for the user.
type PlanRequester interface {
	RequestPlanChange(ctx context.Context, email string, plan models.Plan, details models.PlanChangeDetails) (*models.User, error)
}

// New returns the POST /plan/request handler.
func New(log *slog.Logger, service PlanRequester) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plan.request"

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

		user, err := service.RequestPlanChange(r.Context(), email, models.Plan(req.Plan),
			models.PlanChangeDetails{
				CompanyName:       req.CompanyName,
				TeamSize:          req.TeamSize,
				UseCase:           req.UseCase,
				Phone:             req.Phone,
				PaymentProofImage: req.PaymentProofImage,
			})
		if err != nil {
			log.Error("plan change request failed", sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to request plan change"))

			return
		}

		log.Info("plan change requested",
			slog.String("email", email), slog.String("plan", req.Plan))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"user": user,
		}))
	}
}
