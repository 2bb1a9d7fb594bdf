package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/models"
)

type authenticatorMock struct {
	mock.Mock
}

func (m *authenticatorMock) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*models.User)
	return user, args.String(1), args.Error(2)
}

type refresherMock struct {
	mock.Mock
}

func (m *refresherMock) CheckSubscriptionStatus(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoginHandler(t *testing.T) {
	t.Run("valid login returns token and the current status", func(t *testing.T) {
		svc := new(authenticatorMock)
		svc.On("Login", mock.Anything, "alice@example.com", "s3cret").
			Return(&models.User{Email: "alice@example.com", SubscriptionStatus: models.StatusActive}, "tok", nil)
		refresher := new(refresherMock)
		refresher.On("CheckSubscriptionStatus", mock.Anything, "alice@example.com").
			Return(&models.User{Email: "alice@example.com", SubscriptionStatus: models.StatusExpired}, nil)
		handler := New(newNoopLogger(), svc, refresher)

		body, _ := json.Marshal(Request{Email: "alice@example.com", Password: "s3cret"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Status string `json:"status"`
			Data   struct {
				Token string      `json:"token"`
				User  models.User `json:"user"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "OK", resp.Status)
		assert.Equal(t, "tok", resp.Data.Token)
		assert.Equal(t, models.StatusExpired, resp.Data.User.SubscriptionStatus)
		svc.AssertExpectations(t)
		refresher.AssertExpectations(t)
	})

	t.Run("refresh failure falls back to the stored account", func(t *testing.T) {
		svc := new(authenticatorMock)
		svc.On("Login", mock.Anything, "alice@example.com", "s3cret").
			Return(&models.User{Email: "alice@example.com", SubscriptionStatus: models.StatusActive}, "tok", nil)
		refresher := new(refresherMock)
		refresher.On("CheckSubscriptionStatus", mock.Anything, "alice@example.com").
			Return(nil, errors.New("storage down"))
		handler := New(newNoopLogger(), svc, refresher)

		body, _ := json.Marshal(Request{Email: "alice@example.com", Password: "s3cret"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data struct {
				User models.User `json:"user"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, models.StatusActive, resp.Data.User.SubscriptionStatus)
	})

	t.Run("bad credentials are unauthorized", func(t *testing.T) {
		svc := new(authenticatorMock)
		svc.On("Login", mock.Anything, "alice@example.com", "wrong").
			Return(nil, "", apperr.ErrValidation)
		handler := New(newNoopLogger(), svc, new(refresherMock))

		body, _ := json.Marshal(Request{Email: "alice@example.com", Password: "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		handler := New(newNoopLogger(), new(authenticatorMock), new(refresherMock))

		body, _ := json.Marshal(Request{Email: "alice@example.com"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
