// Package resolve handles the admin decision on a plan change inquiry.
// The approve and reject routes share the handler, parameterized by Action.
package resolve

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/inspec-ai/account-service/internal/http-server/response"
	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/services/approval"
)

// Action selects the decision the handler applies.
type Action string

const (
	Approve Action = "approve"
	Reject  Action = "reject"
)

// PlanResolver applies admin decisions to plan change inquiries.
type PlanResolver interface {
	ApprovePlanInquiry(ctx context.Context, id string) (*approval.PlanDecision, error)
	RejectPlanInquiry(ctx context.Context, id string) (*approval.PlanDecision, error)
}

// New returns the POST /inquiries/plan/{id}/(approve|reject) handler.
func New(log *slog.Logger, service PlanResolver, action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plan.resolve"

		log := log.With(
			slog.String("op", op),
			slog.String("action", string(action)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("missing inquiry id"))

			return
		}

		var (
			decision *approval.PlanDecision
			err      error
		)
		if action == Approve {
			decision, err = service.ApprovePlanInquiry(r.Context(), id)
		} else {
			decision, err = service.RejectPlanInquiry(r.Context(), id)
		}
		if err != nil {
			log.Error("failed to resolve plan inquiry", slog.String("id", id), sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to resolve inquiry"))

			return
		}

		log.Info("plan inquiry resolved", slog.String("id", id))
		render.JSON(w, r, response.StatusOKWithData(decision))
	}
}
