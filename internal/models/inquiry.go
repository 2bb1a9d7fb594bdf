package models

import "time"

// InquiryStatus is the lifecycle state of a stored request.
type InquiryStatus string

const (
	InquiryPending  InquiryStatus = "pending"
	InquiryApproved InquiryStatus = "approved"
	InquiryRejected InquiryStatus = "rejected"
)

// PlanChangeInquiry is a request to move an account onto a gated plan.
// At most one pending inquiry may exist per user email.
type PlanChangeInquiry struct {
	ID                string        `json:"id"`
	UserEmail         string        `json:"user_email"`
	UserName          string        `json:"user_name"`
	RequestedPlan     Plan          `json:"requested_plan"`
	SubmittedAt       time.Time     `json:"submitted_at"`
	Status            InquiryStatus `json:"status"`
	CompanyName       string        `json:"company_name,omitempty"`
	TeamSize          string        `json:"team_size,omitempty"`
	UseCase           string        `json:"use_case,omitempty"`
	Phone             string        `json:"phone,omitempty"`
	PaymentProofImage string        `json:"payment_proof_image,omitempty"`
}

// TeamMemberInquiry is an owner's request to add a member to their team.
// While it is pending the member email sits in the owner's PendingMembers.
type TeamMemberInquiry struct {
	ID                string        `json:"id"`
	OwnerEmail        string        `json:"owner_email"`
	OwnerName         string        `json:"owner_name"`
	MemberEmail       string        `json:"member_email"`
	SubmittedAt       time.Time     `json:"submitted_at"`
	Status            InquiryStatus `json:"status"`
	PaymentProofImage string        `json:"payment_proof_image"`
}

// PlanChangeDetails carries the optional commercial fields submitted with a
// CUSTOM plan request.
type PlanChangeDetails struct {
	CompanyName       string `json:"company_name,omitempty"`
	TeamSize          string `json:"team_size,omitempty"`
	UseCase           string `json:"use_case,omitempty"`
	Phone             string `json:"phone,omitempty"`
	PaymentProofImage string `json:"payment_proof_image,omitempty"`
}
