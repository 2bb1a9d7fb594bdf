// Package approval implements the orchestrator of the account workflow:
// submitting plan change and team member inquiries, and applying admin
// approve/reject decisions. Every decision mutates the inquiry record, the
// affected user(s) and the notification ledger inside one transaction.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/models"
	"github.com/inspec-ai/account-service/internal/services/team"
	"github.com/inspec-ai/account-service/internal/subscription"
)

// Store is the persistence surface the orchestrator needs. A context
// passed to any method inside WithinTx joins the transaction.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetPendingPlan(ctx context.Context, email string, plan *models.Plan) error
	ApplyPlan(ctx context.Context, email string, plan models.Plan, start, end *time.Time, status models.SubscriptionStatus) error
	UpdateSubscriptionStatus(ctx context.Context, email string, status models.SubscriptionStatus) error
	SetAffiliationOwner(ctx context.Context, email string) error
	SetMemberOf(ctx context.Context, email, ownerEmail string) error

	CreatePlanInquiry(ctx context.Context, inq models.PlanChangeInquiry) error
	GetPlanInquiry(ctx context.Context, id string) (*models.PlanChangeInquiry, error)
	ListPlanInquiries(ctx context.Context) ([]models.PlanChangeInquiry, error)
	ResolvePlanInquiry(ctx context.Context, id string, to models.InquiryStatus) error

	CreateTeamInquiry(ctx context.Context, inq models.TeamMemberInquiry) error
	GetTeamInquiry(ctx context.Context, id string) (*models.TeamMemberInquiry, error)
	ListTeamInquiries(ctx context.Context) ([]models.TeamMemberInquiry, error)
	ResolveTeamInquiry(ctx context.Context, id string, to models.InquiryStatus) error

	AddPendingMember(ctx context.Context, ownerEmail, memberEmail string) error
	PromotePendingMember(ctx context.Context, ownerEmail, memberEmail string) error
	RemovePendingMember(ctx context.Context, ownerEmail, memberEmail string) error

	AppendNotification(ctx context.Context, email string, n models.Notification) error
}

// Cache invalidates memoized user snapshots after a decision.
type Cache interface {
	Invalidate(key string) error
}

// EventPublisher pushes decision events to the broker for the offline
// e-mail sender. Publishing is best-effort and happens after commit.
type EventPublisher interface {
	PublishDecision(e models.DecisionEvent) error
}

// PlanDecision is the result of resolving a plan change inquiry.
type PlanDecision struct {
	UpdatedUser      *models.User               `json:"updated_user"`
	UpdatedInquiries []models.PlanChangeInquiry `json:"updated_inquiries"`
}

// TeamDecision is the result of resolving a team member inquiry.
// UpdatedUsers holds the owner and, when their account exists, the member.
type TeamDecision struct {
	UpdatedUsers     []*models.User             `json:"updated_users"`
	UpdatedInquiries []models.TeamMemberInquiry `json:"updated_inquiries"`
}

// Service is the approval orchestrator.
type Service struct {
	store     Store
	cache     Cache
	publisher EventPublisher
	log       *slog.Logger
	grace     time.Duration
	now       func() time.Time
}

// New creates the orchestrator. publisher may be nil when the broker is
// not configured.
func New(store Store, cache Cache, publisher EventPublisher, log *slog.Logger, grace time.Duration) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		publisher: publisher,
		log:       log,
		grace:     grace,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequestPlanChange submits a plan change for the user. Non-gated tiers
// (FREE) apply immediately; gated tiers create a pending inquiry and set
// the pending plan marker. A second submission while one is pending fails
// with the conflict error.
func (s *Service) RequestPlanChange(ctx context.Context, email string, plan models.Plan, details models.PlanChangeDetails) (*models.User, error) {
	const op = "approval.RequestPlanChange"

	if !plan.Valid() {
		return nil, fmt.Errorf("%s: unknown plan %q: %w", op, plan, apperr.ErrValidation)
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user.PendingPlan != nil {
			return fmt.Errorf("%s: a plan change is already awaiting approval: %w", op, apperr.ErrConflict)
		}

		now := s.now()
		if !plan.Gated() {
			if err := s.store.ApplyPlan(ctx, email, plan, nil, nil, ""); err != nil {
				return err
			}
			return s.store.AppendNotification(ctx, email, s.notification(
				fmt.Sprintf("Your plan was changed to %s.", plan), models.SeverityInfo))
		}

		inq := models.PlanChangeInquiry{
			ID:                uuid.NewString(),
			UserEmail:         user.Email,
			UserName:          user.Name,
			RequestedPlan:     plan,
			SubmittedAt:       now,
			Status:            models.InquiryPending,
			CompanyName:       details.CompanyName,
			TeamSize:          details.TeamSize,
			UseCase:           details.UseCase,
			Phone:             details.Phone,
			PaymentProofImage: details.PaymentProofImage,
		}
		if err := s.store.CreatePlanInquiry(ctx, inq); err != nil {
			return err
		}
		if err := s.store.SetPendingPlan(ctx, email, &plan); err != nil {
			return err
		}
		if err := s.store.UpdateSubscriptionStatus(ctx, email, models.StatusPaymentPending); err != nil {
			return err
		}
		return s.store.AppendNotification(ctx, email, s.notification(
			fmt.Sprintf("Your %s plan request was submitted and is awaiting approval.", plan),
			models.SeverityInfo))
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(email)
	s.log.Info("plan change requested",
		slog.String("email", email), slog.String("plan", string(plan)))
	return s.store.GetUserByEmail(ctx, email)
}

// ApprovePlanInquiry resolves a pending plan change in the requester's
// favor: the plan becomes authoritative, the subscription dates restart
// and a success notification is appended, all in one transaction.
func (s *Service) ApprovePlanInquiry(ctx context.Context, id string) (*PlanDecision, error) {
	const op = "approval.ApprovePlanInquiry"

	var inq *models.PlanChangeInquiry
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inq, err = s.store.GetPlanInquiry(ctx, id)
		if err != nil {
			return err
		}
		if inq.Status != models.InquiryPending {
			return fmt.Errorf("%s: inquiry already %s: %w", op, inq.Status, apperr.ErrInvalidState)
		}
		if err := s.store.ResolvePlanInquiry(ctx, id, models.InquiryApproved); err != nil {
			return err
		}

		now := s.now()
		start := now
		end := now.AddDate(0, subscription.BillingPeriodMonths(inq.RequestedPlan), 0)
		status := subscription.ComputeStatus(inq.RequestedPlan, &end, false, now, s.grace)
		if err := s.store.ApplyPlan(ctx, inq.UserEmail, inq.RequestedPlan, &start, &end, status); err != nil {
			return err
		}
		return s.store.AppendNotification(ctx, inq.UserEmail, s.notification(
			fmt.Sprintf("Your %s plan request was approved. Welcome aboard!", inq.RequestedPlan),
			models.SeveritySuccess))
	})
	if err != nil {
		return nil, err
	}

	s.afterDecision(models.DecisionEvent{
		Kind:       models.DecisionPlanChange,
		InquiryID:  id,
		Decision:   models.InquiryApproved,
		UserEmail:  inq.UserEmail,
		UserName:   inq.UserName,
		Message:    fmt.Sprintf("Your %s plan request was approved.", inq.RequestedPlan),
		ResolvedAt: s.now(),
	})
	return s.planDecision(ctx, inq.UserEmail)
}

// RejectPlanInquiry resolves a pending plan change against the requester:
// the pending marker is cleared, the current plan stays, and a warning
// notification is appended.
func (s *Service) RejectPlanInquiry(ctx context.Context, id string) (*PlanDecision, error) {
	const op = "approval.RejectPlanInquiry"

	var inq *models.PlanChangeInquiry
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inq, err = s.store.GetPlanInquiry(ctx, id)
		if err != nil {
			return err
		}
		if inq.Status != models.InquiryPending {
			return fmt.Errorf("%s: inquiry already %s: %w", op, inq.Status, apperr.ErrInvalidState)
		}
		if err := s.store.ResolvePlanInquiry(ctx, id, models.InquiryRejected); err != nil {
			return err
		}

		user, err := s.store.GetUserByEmail(ctx, inq.UserEmail)
		if err != nil {
			return err
		}
		if err := s.store.SetPendingPlan(ctx, inq.UserEmail, nil); err != nil {
			return err
		}
		now := s.now()
		status := subscription.ComputeStatus(user.Plan, user.SubscriptionEnd, false, now, s.grace)
		if err := s.store.UpdateSubscriptionStatus(ctx, inq.UserEmail, status); err != nil {
			return err
		}
		return s.store.AppendNotification(ctx, inq.UserEmail, s.notification(
			fmt.Sprintf("Your %s plan request was rejected. Please contact support for details.", inq.RequestedPlan),
			models.SeverityWarning))
	})
	if err != nil {
		return nil, err
	}

	s.afterDecision(models.DecisionEvent{
		Kind:       models.DecisionPlanChange,
		InquiryID:  id,
		Decision:   models.InquiryRejected,
		UserEmail:  inq.UserEmail,
		UserName:   inq.UserName,
		Message:    fmt.Sprintf("Your %s plan request was rejected.", inq.RequestedPlan),
		ResolvedAt: s.now(),
	})
	return s.planDecision(ctx, inq.UserEmail)
}

// RequestAddTeamMember submits a team invite: the candidate lands in the
// owner's pending members and a pending inquiry is created. The payment
// proof image is required.
func (s *Service) RequestAddTeamMember(ctx context.Context, ownerEmail, memberEmail, proofImage string) (*models.User, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		owner, err := s.store.GetUserByEmail(ctx, ownerEmail)
		if err != nil {
			return err
		}
		candidate, err := s.lookupUser(ctx, memberEmail)
		if err != nil {
			return err
		}
		if err := team.ValidateInvite(owner, memberEmail, proofImage, candidate); err != nil {
			return err
		}

		if owner.Affiliation.Kind == models.AffiliationStandalone {
			if err := s.store.SetAffiliationOwner(ctx, ownerEmail); err != nil {
				return err
			}
		}
		if err := s.store.AddPendingMember(ctx, ownerEmail, memberEmail); err != nil {
			return err
		}
		inq := models.TeamMemberInquiry{
			ID:                uuid.NewString(),
			OwnerEmail:        owner.Email,
			OwnerName:         owner.Name,
			MemberEmail:       memberEmail,
			SubmittedAt:       s.now(),
			Status:            models.InquiryPending,
			PaymentProofImage: proofImage,
		}
		if err := s.store.CreateTeamInquiry(ctx, inq); err != nil {
			return err
		}
		return s.store.AppendNotification(ctx, ownerEmail, s.notification(
			fmt.Sprintf("Your request to add %s to your team is awaiting approval.", memberEmail),
			models.SeverityInfo))
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ownerEmail)
	s.log.Info("team member requested",
		slog.String("owner", ownerEmail), slog.String("member", memberEmail))
	return s.store.GetUserByEmail(ctx, ownerEmail)
}

// ApproveTeamMemberInquiry moves the candidate from pending to full
// membership, merges their account into the owner's scope when it exists,
// and notifies both parties.
func (s *Service) ApproveTeamMemberInquiry(ctx context.Context, id string) (*TeamDecision, error) {
	const op = "approval.ApproveTeamMemberInquiry"

	var inq *models.TeamMemberInquiry
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inq, err = s.store.GetTeamInquiry(ctx, id)
		if err != nil {
			return err
		}
		if inq.Status != models.InquiryPending {
			return fmt.Errorf("%s: inquiry already %s: %w", op, inq.Status, apperr.ErrInvalidState)
		}
		if err := s.store.ResolveTeamInquiry(ctx, id, models.InquiryApproved); err != nil {
			return err
		}
		if err := s.store.PromotePendingMember(ctx, inq.OwnerEmail, inq.MemberEmail); err != nil {
			return err
		}

		candidate, err := s.lookupUser(ctx, inq.MemberEmail)
		if err != nil {
			return err
		}
		if team.CanJoin(candidate) {
			if err := s.store.SetMemberOf(ctx, inq.MemberEmail, inq.OwnerEmail); err != nil {
				return err
			}
			if err := s.store.AppendNotification(ctx, inq.MemberEmail, s.notification(
				fmt.Sprintf("You have been added to the team of %s.", inq.OwnerName),
				models.SeveritySuccess)); err != nil {
				return err
			}
		}
		return s.store.AppendNotification(ctx, inq.OwnerEmail, s.notification(
			fmt.Sprintf("%s has been approved and added to your team.", inq.MemberEmail),
			models.SeveritySuccess))
	})
	if err != nil {
		return nil, err
	}

	s.afterDecision(models.DecisionEvent{
		Kind:       models.DecisionTeamMember,
		InquiryID:  id,
		Decision:   models.InquiryApproved,
		UserEmail:  inq.OwnerEmail,
		UserName:   inq.OwnerName,
		Message:    fmt.Sprintf("%s has been added to your team.", inq.MemberEmail),
		ResolvedAt: s.now(),
	})
	s.invalidate(inq.MemberEmail)
	return s.teamDecision(ctx, inq.OwnerEmail, inq.MemberEmail)
}

// RejectTeamMemberInquiry drops the candidate from the owner's pending
// members without creating membership and notifies the owner.
func (s *Service) RejectTeamMemberInquiry(ctx context.Context, id string) (*TeamDecision, error) {
	const op = "approval.RejectTeamMemberInquiry"

	var inq *models.TeamMemberInquiry
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inq, err = s.store.GetTeamInquiry(ctx, id)
		if err != nil {
			return err
		}
		if inq.Status != models.InquiryPending {
			return fmt.Errorf("%s: inquiry already %s: %w", op, inq.Status, apperr.ErrInvalidState)
		}
		if err := s.store.ResolveTeamInquiry(ctx, id, models.InquiryRejected); err != nil {
			return err
		}
		if err := s.store.RemovePendingMember(ctx, inq.OwnerEmail, inq.MemberEmail); err != nil {
			return err
		}
		return s.store.AppendNotification(ctx, inq.OwnerEmail, s.notification(
			fmt.Sprintf("Your request to add %s to your team was rejected.", inq.MemberEmail),
			models.SeverityWarning))
	})
	if err != nil {
		return nil, err
	}

	s.afterDecision(models.DecisionEvent{
		Kind:       models.DecisionTeamMember,
		InquiryID:  id,
		Decision:   models.InquiryRejected,
		UserEmail:  inq.OwnerEmail,
		UserName:   inq.OwnerName,
		Message:    fmt.Sprintf("Your request to add %s to your team was rejected.", inq.MemberEmail),
		ResolvedAt: s.now(),
	})
	return s.teamDecision(ctx, inq.OwnerEmail, "")
}

// ListPlanInquiries returns the plan change collection for the admin view.
func (s *Service) ListPlanInquiries(ctx context.Context) ([]models.PlanChangeInquiry, error) {
	return s.store.ListPlanInquiries(ctx)
}

// ListTeamInquiries returns the team member collection for the admin view.
func (s *Service) ListTeamInquiries(ctx context.Context) ([]models.TeamMemberInquiry, error) {
	return s.store.ListTeamInquiries(ctx)
}

func (s *Service) planDecision(ctx context.Context, email string) (*PlanDecision, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	inquiries, err := s.store.ListPlanInquiries(ctx)
	if err != nil {
		return nil, err
	}
	return &PlanDecision{UpdatedUser: user, UpdatedInquiries: inquiries}, nil
}

func (s *Service) teamDecision(ctx context.Context, ownerEmail, memberEmail string) (*TeamDecision, error) {
	owner, err := s.store.GetUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	users := []*models.User{owner}
	if memberEmail != "" {
		member, err := s.lookupUser(ctx, memberEmail)
		if err != nil {
			return nil, err
		}
		if member != nil {
			users = append(users, member)
		}
	}
	inquiries, err := s.store.ListTeamInquiries(ctx)
	if err != nil {
		return nil, err
	}
	return &TeamDecision{UpdatedUsers: users, UpdatedInquiries: inquiries}, nil
}

// lookupUser returns nil without error when no account exists for email.
func (s *Service) lookupUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) notification(message string, severity models.Severity) models.Notification {
	return models.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		CreatedAt: s.now(),
	}
}

// afterDecision runs the post-commit side effects: metrics, cache
// invalidation and the best-effort broker publish.
func (s *Service) afterDecision(e models.DecisionEvent) {
	decisionsTotal.WithLabelValues(string(e.Kind), string(e.Decision)).Inc()
	s.invalidate(e.UserEmail)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDecision(e); err != nil {
		s.log.Warn("failed to publish decision event",
			slog.String("inquiry_id", e.InquiryID), sl.Err(err))
	}
}

func (s *Service) invalidate(email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate("user:" + email); err != nil {
		s.log.Warn("failed to invalidate user cache",
			slog.String("email", email), sl.Err(err))
	}
}
