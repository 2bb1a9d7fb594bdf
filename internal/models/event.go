package models

import "time"

// DecisionEventKind identifies which inquiry collection a decision
// resolved.
type DecisionEventKind string

const (
	DecisionPlanChange DecisionEventKind = "plan_change"
	DecisionTeamMember DecisionEventKind = "team_member"
)

// DecisionEvent is published to the broker after an approve/reject commits
// so the notification sender can e-mail the affected user.
type DecisionEvent struct {
	Kind       DecisionEventKind `json:"kind"`
	InquiryID  string            `json:"inquiry_id"`
	Decision   InquiryStatus     `json:"decision"`
	UserEmail  string            `json:"user_email"`
	UserName   string            `json:"user_name"`
	Message    string            `json:"message"`
	ResolvedAt time.Time         `json:"resolved_at"`
}
