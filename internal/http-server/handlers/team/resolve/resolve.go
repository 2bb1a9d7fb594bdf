// Package resolve handles the admin decision on a team member inquiry.
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

// TeamResolver applies admin decisions to team member inquiries.
type TeamResolver interface {
	ApproveTeamMemberInquiry(ctx context.Context, id string) (*approval.TeamDecision, error)
	RejectTeamMemberInquiry(ctx context.Context, id string) (*approval.TeamDecision, error)
}

// New returns the POST /inquiries/team/{id}/(approve|reject) handler.
func New(log *slog.Logger, service TeamResolver, action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.team.resolve"

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
			decision *approval.TeamDecision
			err      error
		)
		if action == Approve {
			decision, err = service.ApproveTeamMemberInquiry(r.Context(), id)
		} else {
			decision, err = service.RejectTeamMemberInquiry(r.Context(), id)
		}
		if err != nil {
			log.Error("failed to resolve team inquiry", slog.String("id", id), sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to resolve inquiry"))

			return
		}

		log.Info("team inquiry resolved", slog.String("id", id))
		render.JSON(w, r, response.StatusOKWithData(decision))
	}
}
