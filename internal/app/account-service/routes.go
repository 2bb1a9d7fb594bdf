package accountservice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inspec-ai/account-service/internal/http-server/handlers/auth/login"
	"github.com/inspec-ai/account-service/internal/http-server/handlers/auth/register"
	"github.com/inspec-ai/account-service/internal/http-server/handlers/auth/session"
	"github.com/inspec-ai/account-service/internal/http-server/handlers/health"
	inquirylist "github.com/inspec-ai/account-service/internal/http-server/handlers/inquiries/list"
	"github.com/inspec-ai/account-service/internal/http-server/handlers/notifications/markallread"
	"github.com/inspec-ai/account-service/internal/http-server/handlers/notifications/markread"
	planrequest "github.com/inspec-ai/account-service/internal/http-server/handlers/plan/request"
	planresolve "github.com/inspec-ai/account-service/internal/http-server/handlers/plan/resolve"
	teaminvite "github.com/inspec-ai/account-service/internal/http-server/handlers/team/invite"
	teamresolve "github.com/inspec-ai/account-service/internal/http-server/handlers/team/resolve"
	userlist "github.com/inspec-ai/account-service/internal/http-server/handlers/users/list"
	userremove "github.com/inspec-ai/account-service/internal/http-server/handlers/users/remove"
	"github.com/inspec-ai/account-service/internal/http-server/mware"
	"github.com/inspec-ai/account-service/internal/lib/jwt"
	approvalservice "github.com/inspec-ai/account-service/internal/services/approval"
	authservice "github.com/inspec-ai/account-service/internal/services/auth"
	notificationservice "github.com/inspec-ai/account-service/internal/services/notification"
	usersservice "github.com/inspec-ai/account-service/internal/services/users"
)

// Services bundles the service layer for route registration.
type Services struct {
	Auth         *authservice.Service
	Approval     *approvalservice.Service
	Users        *usersservice.Service
	Notification *notificationservice.Service
	Readiness    health.ReadinessChecker
}

// RegisterRoutes mounts every endpoint of the API.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, svc *Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", register.New(logger, svc.Auth))
		r.Post("/login", login.New(logger, svc.Auth, svc.Users))

		// authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(mware.JWTMiddleware(jwtMaker, logger))
			r.Use(mware.RateLimit(10, 20))

			r.Get("/me", session.New(logger, svc.Users))
			r.Post("/plan/request", planrequest.New(logger, svc.Approval))
			r.Post("/team/members", teaminvite.New(logger, svc.Approval))
			r.Patch("/notifications/{id}/read", markread.New(logger, svc.Notification))
			r.Post("/notifications/read-all", markallread.New(logger, svc.Notification))

			// admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(mware.AdminOnly(logger))

				r.Get("/users", userlist.New(logger, svc.Users))
				r.Delete("/users/{email}", userremove.New(logger, svc.Users))
				r.Get("/inquiries/plan", inquirylist.NewPlan(logger, svc.Approval))
				r.Get("/inquiries/team", inquirylist.NewTeam(logger, svc.Approval))
				r.Post("/inquiries/plan/{id}/approve", planresolve.New(logger, svc.Approval, planresolve.Approve))
				r.Post("/inquiries/plan/{id}/reject", planresolve.New(logger, svc.Approval, planresolve.Reject))
				r.Post("/inquiries/team/{id}/approve", teamresolve.New(logger, svc.Approval, teamresolve.Approve))
				r.Post("/inquiries/team/{id}/reject", teamresolve.New(logger, svc.Approval, teamresolve.Reject))
			})
		})
	})

	r.Get("/health", health.New(logger, svc.Readiness))
	r.Handle("/metrics", promhttp.Handler())
}
