// Package team holds the membership rules of the owner/member relationship.
// The functions are pure checks over the domain model; the approval service
// applies their outcome transactionally.
package team

import (
	"fmt"
	"slices"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/models"
)

// ValidateInvite checks an owner's request to add candidateEmail to their
// team. candidate is the candidate's account, nil when no such account
// exists yet.
func ValidateInvite(owner *models.User, candidateEmail, proofImage string, candidate *models.User) error {
	const op = "team.ValidateInvite"

	if proofImage == "" {
		return fmt.Errorf("%s: payment proof image is required: %w", op, apperr.ErrValidation)
	}
	if candidateEmail == owner.Email {
		return fmt.Errorf("%s: owner cannot invite themselves: %w", op, apperr.ErrValidation)
	}
	if owner.Affiliation.Kind == models.AffiliationMember {
		return fmt.Errorf("%s: a team member cannot own a team: %w", op, apperr.ErrValidation)
	}
	if t := owner.Affiliation.Team; t != nil {
		if slices.Contains(t.Members, candidateEmail) {
			return fmt.Errorf("%s: %s is already a member: %w", op, candidateEmail, apperr.ErrConflict)
		}
		if slices.Contains(t.PendingMembers, candidateEmail) {
			return fmt.Errorf("%s: %s is already awaiting approval: %w", op, candidateEmail, apperr.ErrConflict)
		}
	}
	if candidate != nil {
		switch candidate.Affiliation.Kind {
		case models.AffiliationOwner:
			return fmt.Errorf("%s: %s owns a team of their own: %w", op, candidateEmail, apperr.ErrConflict)
		case models.AffiliationMember:
			return fmt.Errorf("%s: %s already belongs to a team: %w", op, candidateEmail, apperr.ErrConflict)
		}
	}
	return nil
}

// CanJoin reports whether the candidate account may be merged into the
// owner's scope on approval. Accounts that acquired a team role after the
// invite was submitted are skipped rather than corrupted.
func CanJoin(candidate *models.User) bool {
	return candidate != nil && candidate.Affiliation.Kind == models.AffiliationStandalone
}
