package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/lib/jwt"
	"github.com/inspec-ai/account-service/internal/models"
)

type fakeStore struct {
	users map[string]*models.User
	notes map[string][]models.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[string]*models.User{},
		notes: map[string][]models.Notification{},
	}
}

func (f *fakeStore) RegisterUser(_ context.Context, user models.User) error {
	if _, exists := f.users[user.Email]; exists {
		return fmt.Errorf("fakestore: %s taken: %w", user.Email, apperr.ErrConflict)
	}
	f.users[user.Email] = &user
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, fmt.Errorf("fakestore: %s: %w", email, apperr.ErrNotFound)
	}
	cp := *u
	cp.Notifications = append([]models.Notification(nil), f.notes[email]...)
	return &cp, nil
}

func (f *fakeStore) AppendNotification(_ context.Context, email string, n models.Notification) error {
	f.notes[email] = append(f.notes[email], n)
	return nil
}

func newTestService(store *fakeStore) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, jwt.NewJWTMaker("test-secret", time.Hour), log)
}

func TestRegister(t *testing.T) {
	svc := newTestService(newFakeStore())

	user, err := svc.Register(context.Background(), "alice@example.com", "Alice", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, models.PlanFree, user.Plan)
	assert.Equal(t, "user", user.Role)
	assert.Equal(t, models.AffiliationStandalone, user.Affiliation.Kind)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	require.Len(t, user.Notifications, 1)
	assert.Equal(t, models.SeveritySuccess, user.Notifications[0].Severity)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Register(context.Background(), "alice@example.com", "Alice", "s3cret")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice@example.com", "Alice Again", "other")
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.Register(context.Background(), "alice@example.com", "Alice", "s3cret")
	require.NoError(t, err)

	user, token, err := svc.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.Register(context.Background(), "alice@example.com", "Alice", "s3cret")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "s3cret")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
