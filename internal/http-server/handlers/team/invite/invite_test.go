package invite

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/inspec-ai/account-service/internal/http-server/mware"
	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/models"
)

type memberRequesterMock struct {
	mock.Mock
}

func (m *memberRequesterMock) RequestAddTeamMember(ctx context.Context, ownerEmail, memberEmail, proofImage string) (*models.User, error) {
	args := m.Called(ctx, ownerEmail, memberEmail, proofImage)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doInvite(handler http.HandlerFunc, body Request) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/team/members", bytes.NewReader(raw))
	req = req.WithContext(mware.WithIdentity(req.Context(), "owner@example.com", "user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestInviteHandler(t *testing.T) {
	t.Run("valid invite", func(t *testing.T) {
		svc := new(memberRequesterMock)
		svc.On("RequestAddTeamMember", mock.Anything,
			"owner@example.com", "member@example.com", "proof.png").
			Return(&models.User{Email: "owner@example.com"}, nil)

		rec := doInvite(New(newNoopLogger(), svc),
			Request{MemberEmail: "member@example.com", PaymentProofImage: "proof.png"})

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing proof fails validation", func(t *testing.T) {
		rec := doInvite(New(newNoopLogger(), new(memberRequesterMock)),
			Request{MemberEmail: "member@example.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate invite conflicts", func(t *testing.T) {
		svc := new(memberRequesterMock)
		svc.On("RequestAddTeamMember", mock.Anything,
			"owner@example.com", "member@example.com", "proof.png").
			Return(nil, apperr.ErrConflict)

		rec := doInvite(New(newNoopLogger(), svc),
			Request{MemberEmail: "member@example.com", PaymentProofImage: "proof.png"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
