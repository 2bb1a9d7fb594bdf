// Package list handles the admin inquiry listings, newest first.
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

// InquiryLister reads the stored inquiry collections.
type InquiryLister interface {
	ListPlanInquiries(ctx context.Context) ([]models.PlanChangeInquiry, error)
	ListTeamInquiries(ctx context.Context) ([]models.TeamMemberInquiry, error)
}

// NewPlan returns the GET /inquiries/plan handler.
func NewPlan(log *slog.Logger, service InquiryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.inquiries.list.plan"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		inquiries, err := service.ListPlanInquiries(r.Context())
		if err != nil {
			log.Error("failed to list plan inquiries", sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to list inquiries"))

			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"inquiries": inquiries,
		}))
	}
}

// NewTeam returns the GET /inquiries/team handler.
func NewTeam(log *slog.Logger, service InquiryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.inquiries.list.team"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		inquiries, err := service.ListTeamInquiries(r.Context())
		if err != nil {
			log.Error("failed to list team inquiries", sl.Err(err))
			render.Status(r, response.StatusFromError(err))
			render.JSON(w, r, response.Error("failed to list inquiries"))

			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"inquiries": inquiries,
		}))
	}
}
