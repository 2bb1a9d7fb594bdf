package approval

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/models"
	"github.com/inspec-ai/account-service/internal/subscription"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore) (*Service, *fakePublisher, *fakeCache) {
	pub := &fakePublisher{}
	cache := &fakeCache{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(store, cache, pub, log, subscription.DefaultGracePeriod)
	svc.now = func() time.Time { return testNow }
	return svc, pub, cache
}

func TestRequestPlanChange_FreeAppliesImmediately(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice@example.com", "Alice", models.PlanPro)
	svc, _, _ := newTestService(store)

	user, err := svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanFree, models.PlanChangeDetails{})
	require.NoError(t, err)

	assert.Equal(t, models.PlanFree, user.Plan)
	assert.Nil(t, user.PendingPlan)
	assert.Empty(t, store.planInqs)
	require.Len(t, user.Notifications, 1)
	assert.Equal(t, models.SeverityInfo, user.Notifications[0].Severity)
}

func TestRequestPlanChange_GatedCreatesPendingInquiry(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice@example.com", "Alice", models.PlanFree)
	svc, _, cache := newTestService(store)

	user, err := svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanPro, models.PlanChangeDetails{PaymentProofImage: "proof.png"})
	require.NoError(t, err)

	require.NotNil(t, user.PendingPlan)
	assert.Equal(t, models.PlanPro, *user.PendingPlan)
	assert.Equal(t, models.PlanFree, user.Plan)
	assert.Equal(t, models.StatusPaymentPending, user.SubscriptionStatus)
	assert.Contains(t, cache.keys, "user:alice@example.com")

	inquiries, err := svc.ListPlanInquiries(context.Background())
	require.NoError(t, err)
	require.Len(t, inquiries, 1)
	assert.Equal(t, models.InquiryPending, inquiries[0].Status)
	assert.Equal(t, "proof.png", inquiries[0].PaymentProofImage)
}

func TestRequestPlanChange_SecondSubmissionConflicts(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice@example.com", "Alice", models.PlanFree)
	svc, _, _ := newTestService(store)

	_, err := svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanPro, models.PlanChangeDetails{})
	require.NoError(t, err)

	_, err = svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanCustom, models.PlanChangeDetails{})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Len(t, store.planInqs, 1)
}

func TestRequestPlanChange_UnknownPlan(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice@example.com", "Alice", models.PlanFree)
	svc, _, _ := newTestService(store)

	_, err := svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.Plan("platinum"), models.PlanChangeDetails{})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestApprovePlanInquiry(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice@example.com", "Alice", models.PlanFree)
	svc, pub, _ := newTestService(store)

	_, err := svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanPro, models.PlanChangeDetails{})
	require.NoError(t, err)
	inquiries, _ := svc.ListPlanInquiries(context.Background())
	id := inquiries[0].ID

	decision, err := svc.ApprovePlanInquiry(context.Background(), id)
	require.NoError(t, err)

	user := decision.UpdatedUser
	assert.Equal(t, models.PlanPro, user.Plan)
	assert.Nil(t, user.PendingPlan)
	assert.Equal(t, models.StatusActive, user.SubscriptionStatus)
	require.NotNil(t, user.SubscriptionEnd)
	assert.Equal(t, testNow.AddDate(0, 1, 0), *user.SubscriptionEnd)

	require.Len(t, decision.UpdatedInquiries, 1)
	assert.Equal(t, models.InquiryApproved, decision.UpdatedInquiries[0].Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, models.DecisionPlanChange, pub.events[0].Kind)
	assert.Equal(t, models.InquiryApproved, pub.events[0].Decision)
	assert.Equal(t, "alice@example.com", pub.events[0].UserEmail)
}

func TestApprovePlanInquiry_Twice(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice@example.com", "Alice", models.PlanFree)
	svc, _, _ := newTestService(store)

	_, err := svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanPro, models.PlanChangeDetails{})
	require.NoError(t, err)
	inquiries, _ := svc.ListPlanInquiries(context.Background())
	id := inquiries[0].ID

	_, err = svc.ApprovePlanInquiry(context.Background(), id)
	require.NoError(t, err)

	_, err = svc.ApprovePlanInquiry(context.Background(), id)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = svc.RejectPlanInquiry(context.Background(), id)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestApprovePlanInquiry_NotFound(t *testing.T) {
	svc, _, _ := newTestService(newFakeStore())

	_, err := svc.ApprovePlanInquiry(context.Background(), "no-such-id")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRejectPlanInquiry_RestoresState(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice@example.com", "Alice", models.PlanFree)
	svc, pub, _ := newTestService(store)

	_, err := svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanCustom, models.PlanChangeDetails{CompanyName: "Acme"})
	require.NoError(t, err)
	inquiries, _ := svc.ListPlanInquiries(context.Background())

	decision, err := svc.RejectPlanInquiry(context.Background(), inquiries[0].ID)
	require.NoError(t, err)

	user := decision.UpdatedUser
	assert.Equal(t, models.PlanFree, user.Plan)
	assert.Nil(t, user.PendingPlan)
	assert.NotEqual(t, models.StatusPaymentPending, user.SubscriptionStatus)
	assert.Equal(t, models.InquiryRejected, decision.UpdatedInquiries[0].Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.InquiryRejected, pub.events[0].Decision)

	// a rejected request does not block a new one
	_, err = svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanPro, models.PlanChangeDetails{})
	require.NoError(t, err)
}

func TestRequestAddTeamMember(t *testing.T) {
	store := newFakeStore()
	store.addUser("owner@example.com", "Owner", models.PlanPro)
	store.addUser("member@example.com", "Member", models.PlanFree)
	svc, _, _ := newTestService(store)

	owner, err := svc.RequestAddTeamMember(context.Background(),
		"owner@example.com", "member@example.com", "proof.png")
	require.NoError(t, err)

	assert.Equal(t, models.AffiliationOwner, owner.Affiliation.Kind)
	require.NotNil(t, owner.Affiliation.Team)
	assert.Equal(t, []string{"member@example.com"}, owner.Affiliation.Team.PendingMembers)
	assert.Empty(t, owner.Affiliation.Team.Members)

	inquiries, err := svc.ListTeamInquiries(context.Background())
	require.NoError(t, err)
	require.Len(t, inquiries, 1)
	assert.Equal(t, models.InquiryPending, inquiries[0].Status)
}

func TestRequestAddTeamMember_Validation(t *testing.T) {
	cases := []struct {
		name   string
		member string
		proof  string
		want   error
	}{
		{"missing proof", "member@example.com", "", apperr.ErrValidation},
		{"self invite", "owner@example.com", "proof.png", apperr.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			store.addUser("owner@example.com", "Owner", models.PlanPro)
			store.addUser("member@example.com", "Member", models.PlanFree)
			svc, _, _ := newTestService(store)

			_, err := svc.RequestAddTeamMember(context.Background(),
				"owner@example.com", tc.member, tc.proof)
			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, store.teamInqs)
			assert.Equal(t, models.AffiliationStandalone, store.users["owner@example.com"].affiliation)
		})
	}
}

func TestRequestAddTeamMember_DuplicateConflicts(t *testing.T) {
	store := newFakeStore()
	store.addUser("owner@example.com", "Owner", models.PlanPro)
	svc, _, _ := newTestService(store)

	_, err := svc.RequestAddTeamMember(context.Background(),
		"owner@example.com", "new@example.com", "proof.png")
	require.NoError(t, err)

	_, err = svc.RequestAddTeamMember(context.Background(),
		"owner@example.com", "new@example.com", "proof.png")
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Len(t, store.teamInqs, 1)
}

func TestApproveTeamMemberInquiry(t *testing.T) {
	store := newFakeStore()
	store.addUser("owner@example.com", "Owner", models.PlanPro)
	store.addUser("member@example.com", "Member", models.PlanFree)
	svc, pub, _ := newTestService(store)

	_, err := svc.RequestAddTeamMember(context.Background(),
		"owner@example.com", "member@example.com", "proof.png")
	require.NoError(t, err)
	inquiries, _ := svc.ListTeamInquiries(context.Background())

	decision, err := svc.ApproveTeamMemberInquiry(context.Background(), inquiries[0].ID)
	require.NoError(t, err)

	require.Len(t, decision.UpdatedUsers, 2)
	owner, member := decision.UpdatedUsers[0], decision.UpdatedUsers[1]
	assert.Equal(t, []string{"member@example.com"}, owner.Affiliation.Team.Members)
	assert.Empty(t, owner.Affiliation.Team.PendingMembers)
	assert.Equal(t, models.AffiliationMember, member.Affiliation.Kind)
	assert.Equal(t, "owner@example.com", member.Affiliation.OwnerEmail)
	require.NotEmpty(t, member.Notifications)

	assert.Equal(t, models.InquiryApproved, decision.UpdatedInquiries[0].Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.DecisionTeamMember, pub.events[0].Kind)
}

func TestApproveTeamMemberInquiry_UnregisteredMember(t *testing.T) {
	store := newFakeStore()
	store.addUser("owner@example.com", "Owner", models.PlanPro)
	svc, _, _ := newTestService(store)

	_, err := svc.RequestAddTeamMember(context.Background(),
		"owner@example.com", "ghost@example.com", "proof.png")
	require.NoError(t, err)
	inquiries, _ := svc.ListTeamInquiries(context.Background())

	decision, err := svc.ApproveTeamMemberInquiry(context.Background(), inquiries[0].ID)
	require.NoError(t, err)

	require.Len(t, decision.UpdatedUsers, 1)
	owner := decision.UpdatedUsers[0]
	assert.Equal(t, []string{"ghost@example.com"}, owner.Affiliation.Team.Members)
}

func TestRejectTeamMemberInquiry(t *testing.T) {
	store := newFakeStore()
	store.addUser("owner@example.com", "Owner", models.PlanPro)
	store.addUser("member@example.com", "Member", models.PlanFree)
	svc, _, _ := newTestService(store)

	_, err := svc.RequestAddTeamMember(context.Background(),
		"owner@example.com", "member@example.com", "proof.png")
	require.NoError(t, err)
	inquiries, _ := svc.ListTeamInquiries(context.Background())

	decision, err := svc.RejectTeamMemberInquiry(context.Background(), inquiries[0].ID)
	require.NoError(t, err)

	owner := decision.UpdatedUsers[0]
	assert.Empty(t, owner.Affiliation.Team.Members)
	assert.Empty(t, owner.Affiliation.Team.PendingMembers)
	assert.Equal(t, models.InquiryRejected, decision.UpdatedInquiries[0].Status)
	assert.Equal(t, models.AffiliationStandalone, store.users["member@example.com"].affiliation)
}

func TestApprovePlanInquiry_FailureRollsBackEverything(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice@example.com", "Alice", models.PlanFree)
	svc, pub, _ := newTestService(store)

	_, err := svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanPro, models.PlanChangeDetails{})
	require.NoError(t, err)
	inquiries, _ := svc.ListPlanInquiries(context.Background())

	store.failOn = "AppendNotification"
	_, err = svc.ApprovePlanInquiry(context.Background(), inquiries[0].ID)
	require.Error(t, err)

	// nothing from the failed decision stuck
	row := store.users["alice@example.com"]
	assert.Equal(t, models.PlanFree, row.plan)
	require.NotNil(t, row.pendingPlan)
	assert.Equal(t, models.InquiryPending, store.planInqs[inquiries[0].ID].Status)
	assert.Empty(t, pub.events)

	// and the decision still goes through afterwards
	store.failOn = ""
	_, err = svc.ApprovePlanInquiry(context.Background(), inquiries[0].ID)
	require.NoError(t, err)
}

func TestPublishFailureDoesNotFailDecision(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice@example.com", "Alice", models.PlanFree)
	svc, pub, _ := newTestService(store)
	pub.err = context.DeadlineExceeded

	_, err := svc.RequestPlanChange(context.Background(), "alice@example.com",
		models.PlanPro, models.PlanChangeDetails{})
	require.NoError(t, err)
	inquiries, _ := svc.ListPlanInquiries(context.Background())

	decision, err := svc.ApprovePlanInquiry(context.Background(), inquiries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, decision.UpdatedUser.Plan)
}
