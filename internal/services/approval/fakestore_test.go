package approval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/models"
)

// fakeStore is an in-memory Store. WithinTx snapshots the whole state and
// restores it when the callback fails, so the atomicity of the service can
// be exercised without a database.
type fakeStore struct {
	users    map[string]*userRow
	members  map[string]map[string]bool // owner -> member -> pending
	planInqs map[string]models.PlanChangeInquiry
	teamInqs map[string]models.TeamMemberInquiry
	notes    map[string][]models.Notification

	// failOn makes the named mutation return an error, to simulate a
	// mid-transaction failure.
	failOn string
}

type userRow struct {
	email, name, role string
	plan              models.Plan
	pendingPlan       *models.Plan
	subStart, subEnd  *time.Time
	status            models.SubscriptionStatus
	affiliation       models.AffiliationKind
	memberOf          string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*userRow{},
		members:  map[string]map[string]bool{},
		planInqs: map[string]models.PlanChangeInquiry{},
		teamInqs: map[string]models.TeamMemberInquiry{},
		notes:    map[string][]models.Notification{},
	}
}

func (f *fakeStore) addUser(email, name string, plan models.Plan) {
	f.users[email] = &userRow{
		email: email, name: name, role: "user",
		plan: plan, affiliation: models.AffiliationStandalone,
	}
}

func (f *fakeStore) fail(method string) error {
	if f.failOn == method {
		return fmt.Errorf("fakestore: forced failure in %s", method)
	}
	return nil
}

func (f *fakeStore) WithinTx(_ context.Context, fn func(ctx context.Context) error) error {
	snap := f.snapshot()
	if err := fn(context.Background()); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeStore) snapshot() *fakeStore {
	snap := newFakeStore()
	for k, v := range f.users {
		row := *v
		if v.pendingPlan != nil {
			p := *v.pendingPlan
			row.pendingPlan = &p
		}
		snap.users[k] = &row
	}
	for owner, mm := range f.members {
		cp := map[string]bool{}
		for m, pending := range mm {
			cp[m] = pending
		}
		snap.members[owner] = cp
	}
	for k, v := range f.planInqs {
		snap.planInqs[k] = v
	}
	for k, v := range f.teamInqs {
		snap.teamInqs[k] = v
	}
	for k, v := range f.notes {
		snap.notes[k] = append([]models.Notification(nil), v...)
	}
	return snap
}

func (f *fakeStore) restore(snap *fakeStore) {
	f.users = snap.users
	f.members = snap.members
	f.planInqs = snap.planInqs
	f.teamInqs = snap.teamInqs
	f.notes = snap.notes
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	row, ok := f.users[email]
	if !ok {
		return nil, fmt.Errorf("fakestore: %s: %w", email, apperr.ErrNotFound)
	}
	u := &models.User{
		Email: row.email, Name: row.name, Role: row.role,
		Plan:               row.plan,
		SubscriptionStart:  row.subStart,
		SubscriptionEnd:    row.subEnd,
		SubscriptionStatus: row.status,
		Notifications:      append([]models.Notification(nil), f.notes[email]...),
	}
	if row.pendingPlan != nil {
		p := *row.pendingPlan
		u.PendingPlan = &p
	}
	switch row.affiliation {
	case models.AffiliationOwner:
		team := &models.Team{}
		var names []string
		for m := range f.members[email] {
			names = append(names, m)
		}
		sort.Strings(names)
		for _, m := range names {
			if f.members[email][m] {
				team.PendingMembers = append(team.PendingMembers, m)
			} else {
				team.Members = append(team.Members, m)
			}
		}
		u.Affiliation = models.OwnerAffiliation(team)
	case models.AffiliationMember:
		u.Affiliation = models.MemberAffiliation(row.memberOf)
	default:
		u.Affiliation = models.StandaloneAffiliation()
	}
	return u, nil
}

func (f *fakeStore) SetPendingPlan(_ context.Context, email string, plan *models.Plan) error {
	if err := f.fail("SetPendingPlan"); err != nil {
		return err
	}
	f.users[email].pendingPlan = plan
	return nil
}

func (f *fakeStore) ApplyPlan(_ context.Context, email string, plan models.Plan, start, end *time.Time, status models.SubscriptionStatus) error {
	if err := f.fail("ApplyPlan"); err != nil {
		return err
	}
	row := f.users[email]
	row.plan = plan
	row.pendingPlan = nil
	row.subStart = start
	row.subEnd = end
	row.status = status
	return nil
}

func (f *fakeStore) UpdateSubscriptionStatus(_ context.Context, email string, status models.SubscriptionStatus) error {
	if err := f.fail("UpdateSubscriptionStatus"); err != nil {
		return err
	}
	f.users[email].status = status
	return nil
}

func (f *fakeStore) SetAffiliationOwner(_ context.Context, email string) error {
	f.users[email].affiliation = models.AffiliationOwner
	if f.members[email] == nil {
		f.members[email] = map[string]bool{}
	}
	return nil
}

func (f *fakeStore) SetMemberOf(_ context.Context, email, ownerEmail string) error {
	if err := f.fail("SetMemberOf"); err != nil {
		return err
	}
	row := f.users[email]
	row.affiliation = models.AffiliationMember
	row.memberOf = ownerEmail
	return nil
}

func (f *fakeStore) CreatePlanInquiry(_ context.Context, inq models.PlanChangeInquiry) error {
	if err := f.fail("CreatePlanInquiry"); err != nil {
		return err
	}
	for _, existing := range f.planInqs {
		if existing.UserEmail == inq.UserEmail && existing.Status == models.InquiryPending {
			return fmt.Errorf("fakestore: pending inquiry exists: %w", apperr.ErrConflict)
		}
	}
	f.planInqs[inq.ID] = inq
	return nil
}

func (f *fakeStore) GetPlanInquiry(_ context.Context, id string) (*models.PlanChangeInquiry, error) {
	inq, ok := f.planInqs[id]
	if !ok {
		return nil, fmt.Errorf("fakestore: inquiry %s: %w", id, apperr.ErrNotFound)
	}
	return &inq, nil
}

func (f *fakeStore) ListPlanInquiries(_ context.Context) ([]models.PlanChangeInquiry, error) {
	var out []models.PlanChangeInquiry
	for _, inq := range f.planInqs {
		out = append(out, inq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (f *fakeStore) ResolvePlanInquiry(_ context.Context, id string, to models.InquiryStatus) error {
	if err := f.fail("ResolvePlanInquiry"); err != nil {
		return err
	}
	inq, ok := f.planInqs[id]
	if !ok || inq.Status != models.InquiryPending {
		return fmt.Errorf("fakestore: inquiry %s not pending: %w", id, apperr.ErrInvalidState)
	}
	inq.Status = to
	f.planInqs[id] = inq
	return nil
}

func (f *fakeStore) CreateTeamInquiry(_ context.Context, inq models.TeamMemberInquiry) error {
	for _, existing := range f.teamInqs {
		if existing.OwnerEmail == inq.OwnerEmail && existing.MemberEmail == inq.MemberEmail &&
			existing.Status == models.InquiryPending {
			return fmt.Errorf("fakestore: pending inquiry exists: %w", apperr.ErrConflict)
		}
	}
	f.teamInqs[inq.ID] = inq
	return nil
}

func (f *fakeStore) GetTeamInquiry(_ context.Context, id string) (*models.TeamMemberInquiry, error) {
	inq, ok := f.teamInqs[id]
	if !ok {
		return nil, fmt.Errorf("fakestore: inquiry %s: %w", id, apperr.ErrNotFound)
	}
	return &inq, nil
}

func (f *fakeStore) ListTeamInquiries(_ context.Context) ([]models.TeamMemberInquiry, error) {
	var out []models.TeamMemberInquiry
	for _, inq := range f.teamInqs {
		out = append(out, inq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (f *fakeStore) ResolveTeamInquiry(_ context.Context, id string, to models.InquiryStatus) error {
	inq, ok := f.teamInqs[id]
	if !ok || inq.Status != models.InquiryPending {
		return fmt.Errorf("fakestore: inquiry %s not pending: %w", id, apperr.ErrInvalidState)
	}
	inq.Status = to
	f.teamInqs[id] = inq
	return nil
}

func (f *fakeStore) AddPendingMember(_ context.Context, ownerEmail, memberEmail string) error {
	if f.members[ownerEmail] == nil {
		f.members[ownerEmail] = map[string]bool{}
	}
	if _, exists := f.members[ownerEmail][memberEmail]; exists {
		return fmt.Errorf("fakestore: already listed: %w", apperr.ErrConflict)
	}
	f.members[ownerEmail][memberEmail] = true
	return nil
}

func (f *fakeStore) PromotePendingMember(_ context.Context, ownerEmail, memberEmail string) error {
	if err := f.fail("PromotePendingMember"); err != nil {
		return err
	}
	pending, ok := f.members[ownerEmail][memberEmail]
	if !ok || !pending {
		return fmt.Errorf("fakestore: no pending member: %w", apperr.ErrNotFound)
	}
	f.members[ownerEmail][memberEmail] = false
	return nil
}

func (f *fakeStore) RemovePendingMember(_ context.Context, ownerEmail, memberEmail string) error {
	pending, ok := f.members[ownerEmail][memberEmail]
	if !ok || !pending {
		return fmt.Errorf("fakestore: no pending member: %w", apperr.ErrNotFound)
	}
	delete(f.members[ownerEmail], memberEmail)
	return nil
}

func (f *fakeStore) AppendNotification(_ context.Context, email string, n models.Notification) error {
	if err := f.fail("AppendNotification"); err != nil {
		return err
	}
	if _, ok := f.users[email]; !ok {
		return fmt.Errorf("fakestore: %s: %w", email, apperr.ErrNotFound)
	}
	f.notes[email] = append(f.notes[email], n)
	return nil
}

// fakePublisher records published decision events.
type fakePublisher struct {
	events []models.DecisionEvent
	err    error
}

func (p *fakePublisher) PublishDecision(e models.DecisionEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

// fakeCache records invalidated keys.
type fakeCache struct {
	keys []string
}

func (c *fakeCache) Invalidate(key string) error {
	c.keys = append(c.keys, key)
	return nil
}
