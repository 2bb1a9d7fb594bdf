// Package auth registers accounts and issues session tokens.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/lib/jwt"
	"github.com/inspec-ai/account-service/internal/lib/password"
	"github.com/inspec-ai/account-service/internal/models"
)

type Store interface {
	RegisterUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AppendNotification(ctx context.Context, email string, n models.Notification) error
}

type Service struct {
	store Store
	maker jwt.Maker
	log   *slog.Logger
	now   func() time.Time
}

func New(store Store, maker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		store: store,
		maker: maker,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a standalone FREE account and appends the welcome
// notification. A taken email fails with the conflict error.
func (s *Service) Register(ctx context.Context, email, name, rawPassword string) (*models.User, error) {
	const op = "auth.Register"

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         "user",
		Plan:         models.PlanFree,
		Affiliation:  models.StandaloneAffiliation(),
	}
	if err := s.store.RegisterUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	welcome := models.Notification{
		ID:        uuid.NewString(),
		Message:   fmt.Sprintf("Welcome, %s! Your account is ready.", name),
		Severity:  models.SeveritySuccess,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendNotification(ctx, email, welcome); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("email", email))
	return s.store.GetUserByEmail(ctx, email)
}

// Login checks the credentials and returns a signed session token with
// the account. Bad email and bad password are indistinguishable to the
// caller.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	const op = "auth.Login"

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("%s: invalid credentials: %w", op, apperr.ErrValidation)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, "", fmt.Errorf("%s: invalid credentials: %w", op, apperr.ErrValidation)
	}

	token, err := s.maker.GenerateToken(user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// ValidateToken parses the session token and returns its claims.
func (s *Service) ValidateToken(tokenStr string) (*jwt.CustomClaims, error) {
	const op = "auth.ValidateToken"

	claims, err := s.maker.ParseToken(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}
