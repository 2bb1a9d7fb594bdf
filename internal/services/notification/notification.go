// Package notification manages the read state of a user's notification
// ledger.
package notification

import (
	"context"
	"log/slog"

	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/models"
)

type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AppendNotification(ctx context.Context, email string, n models.Notification) error
	MarkNotificationRead(ctx context.Context, email, id string) error
	MarkAllNotificationsRead(ctx context.Context, email string) error
}

type Cache interface {
	Invalidate(key string) error
}

type Service struct {
	store Store
	cache Cache
	log   *slog.Logger
}

func New(store Store, cache Cache, log *slog.Logger) *Service {
	return &Service{store: store, cache: cache, log: log}
}

// MarkRead flips one notification to read and returns the refreshed user.
// Marking an already read or unknown notification is a no-op.
func (s *Service) MarkRead(ctx context.Context, email, id string) (*models.User, error) {
	if err := s.store.MarkNotificationRead(ctx, email, id); err != nil {
		return nil, err
	}
	s.invalidate(email)
	return s.store.GetUserByEmail(ctx, email)
}

// MarkAllRead flips every notification of the user to read.
func (s *Service) MarkAllRead(ctx context.Context, email string) (*models.User, error) {
	if err := s.store.MarkAllNotificationsRead(ctx, email); err != nil {
		return nil, err
	}
	s.invalidate(email)
	return s.store.GetUserByEmail(ctx, email)
}

// Append adds an entry to the user's ledger.
func (s *Service) Append(ctx context.Context, email string, n models.Notification) error {
	if err := s.store.AppendNotification(ctx, email, n); err != nil {
		return err
	}
	s.invalidate(email)
	return nil
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
