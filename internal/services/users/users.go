// Package users serves account reads: the current-user view with a fresh
// subscription status, the admin user listing and account removal.
package users

import (
	"context"
	"log/slog"
	"time"

	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/models"
	"github.com/inspec-ai/account-service/internal/subscription"
)

type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateSubscriptionStatus(ctx context.Context, email string, status models.SubscriptionStatus) error
	HasPendingPlanInquiry(ctx context.Context, email string) (bool, error)
	CountProjectsByUser(ctx context.Context) (map[string]int, error)
	DeleteUserAndProjects(ctx context.Context, email string) error
}

type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, ttl time.Duration) error
	Invalidate(key string) error
}

type Service struct {
	store    Store
	cache    Cache
	log      *slog.Logger
	grace    time.Duration
	cacheTTL time.Duration
	now      func() time.Time
}

func New(store Store, cache Cache, log *slog.Logger, grace time.Duration) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		log:      log,
		grace:    grace,
		cacheTTL: time.Minute,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetUser returns the account view for email with the subscription status
// recomputed against the clock. A drifted stored status is written back.
// The assembled view is memoized in the cache until the next mutation
// invalidates it.
func (s *Service) GetUser(ctx context.Context, email string) (*models.User, error) {
	if s.cache != nil {
		var cached models.User
		found, err := s.cache.Get("user:"+email, &cached)
		if err != nil {
			s.log.Warn("user cache lookup failed", slog.String("email", email), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	user, err := s.refreshStatus(ctx, email)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set("user:"+email, user, s.cacheTTL); err != nil {
			s.log.Warn("user cache store failed", slog.String("email", email), sl.Err(err))
		}
	}
	return user, nil
}

// CheckSubscriptionStatus recomputes and persists the status for email,
// bypassing the cache.
func (s *Service) CheckSubscriptionStatus(ctx context.Context, email string) (*models.User, error) {
	user, err := s.refreshStatus(ctx, email)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate("user:" + email); err != nil {
			s.log.Warn("failed to invalidate user cache", slog.String("email", email), sl.Err(err))
		}
	}
	return user, nil
}

// ListUsers returns every non-admin account with its project count, for
// the admin dashboard.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	all, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountProjectsByUser(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.User, 0, len(all))
	for _, u := range all {
		if u.IsAdmin() {
			continue
		}
		view := *u
		view.ProjectCount = counts[u.Email]
		out = append(out, view)
	}
	return out, nil
}

// DeleteUser removes the account together with its projects, team links
// and notifications.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	if err := s.store.DeleteUserAndProjects(ctx, email); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate("user:" + email); err != nil {
			s.log.Warn("failed to invalidate user cache", slog.String("email", email), sl.Err(err))
		}
	}
	s.log.Info("user deleted", slog.String("email", email))
	return nil
}

func (s *Service) refreshStatus(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.HasPendingPlanInquiry(ctx, email)
	if err != nil {
		return nil, err
	}

	status := subscription.ComputeStatus(user.Plan, user.SubscriptionEnd, pending, s.now(), s.grace)
	if status != user.SubscriptionStatus {
		if err := s.store.UpdateSubscriptionStatus(ctx, email, status); err != nil {
			return nil, err
		}
		user.SubscriptionStatus = status
	}
	return user, nil
}
