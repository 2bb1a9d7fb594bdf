// Package models contains the domain structures for accounts, subscription
// plans, team membership and the request/notification records that the
// approval workflow operates on.
package models

import "time"

// Plan is a subscription tier. FREE applies immediately; PRO and CUSTOM are
// gated behind an admin-approved plan change inquiry.
type Plan string

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanCustom Plan = "custom"
)

// Gated reports whether switching to the plan requires admin approval.
func (p Plan) Gated() bool {
	return p == PlanPro || p == PlanCustom
}

// Valid reports whether the value is a known plan tier.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro || p == PlanCustom
}

// SubscriptionStatus is the derived state of a paid subscription.
type SubscriptionStatus string

const (
	StatusActive         SubscriptionStatus = "active"
	StatusPastDue        SubscriptionStatus = "past_due"
	StatusExpired        SubscriptionStatus = "expired"
	StatusPaymentPending SubscriptionStatus = "payment_pending"
)

// AffiliationKind tags the team role of an account.
type AffiliationKind string

const (
	AffiliationStandalone AffiliationKind = "standalone"
	AffiliationOwner      AffiliationKind = "owner"
	AffiliationMember     AffiliationKind = "member"
)

// Team holds the membership lists of a team owner. PendingMembers mirrors
// the pending team member inquiries for this owner, one entry per inquiry.
type Team struct {
	Members        []string `json:"members"`
	PendingMembers []string `json:"pending_members"`
}

// Affiliation is the team role of an account, chosen at construction:
// an owner carries a Team, a member carries the owner's email, a standalone
// account carries neither. The three shapes are mutually exclusive.
type Affiliation struct {
	Kind       AffiliationKind `json:"kind"`
	Team       *Team           `json:"team,omitempty"`
	OwnerEmail string          `json:"owner_email,omitempty"`
}

// StandaloneAffiliation builds the affiliation of an account with no team.
func StandaloneAffiliation() Affiliation {
	return Affiliation{Kind: AffiliationStandalone}
}

// OwnerAffiliation builds the affiliation of a team owner.
func OwnerAffiliation(team *Team) Affiliation {
	if team == nil {
		team = &Team{}
	}
	return Affiliation{Kind: AffiliationOwner, Team: team}
}

// MemberAffiliation builds the affiliation of a team member.
func MemberAffiliation(ownerEmail string) Affiliation {
	return Affiliation{Kind: AffiliationMember, OwnerEmail: ownerEmail}
}

// User represents an account together with its owned aggregates: the
// notification ledger and, for owners, the team membership lists.
// PendingPlan is set iff exactly one pending plan change inquiry exists
// for this email.
type User struct {
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	PasswordHash       string             `json:"-"`
	Role               string             `json:"role"` // "admin" or "user"
	Plan               Plan               `json:"plan"`
	PendingPlan        *Plan              `json:"pending_plan,omitempty"`
	SubscriptionStart  *time.Time         `json:"subscription_start,omitempty"`
	SubscriptionEnd    *time.Time         `json:"subscription_end,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status,omitempty"`
	Affiliation        Affiliation        `json:"affiliation"`
	Notifications      []Notification     `json:"notifications"`
	ProjectCount       int                `json:"project_count,omitempty"`
}

// IsAdmin reports whether the account may resolve inquiries.
func (u *User) IsAdmin() bool { return u.Role == "admin" }

// Project is a minimal owned artifact; the account service only needs
// enough of it to count per-user projects and cascade deletes.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}
