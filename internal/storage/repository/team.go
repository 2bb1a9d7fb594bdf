package repository

import (
	"context"
	"fmt"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/models"
)

// ListTeam returns the owner's membership lists.
func (s *Storage) ListTeam(ctx context.Context, ownerEmail string) (*models.Team, error) {
	const op = "storage.ListTeam"

	query := `SELECT member_email, pending
			  FROM team_members
			  WHERE owner_email = $1
			  ORDER BY added_at;`
	rows, err := s.db(ctx).QueryContext(ctx, query, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	team := &models.Team{}
	for rows.Next() {
		var email string
		var pending bool
		if err := rows.Scan(&email, &pending); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if pending {
			team.PendingMembers = append(team.PendingMembers, email)
		} else {
			team.Members = append(team.Members, email)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return team, nil
}

// AddPendingMember records a candidate awaiting approval. A candidate that
// is already a member or already pending maps to ErrConflict.
func (s *Storage) AddPendingMember(ctx context.Context, ownerEmail, memberEmail string) error {
	const op = "storage.AddPendingMember"

	query := `INSERT INTO team_members (owner_email, member_email, pending)
			  VALUES ($1, $2, TRUE);`
	if _, err := s.db(ctx).ExecContext(ctx, query, ownerEmail, memberEmail); err != nil {
		return mapConstraintErr(op, err)
	}
	return nil
}

// PromotePendingMember moves a candidate from pending to full membership.
func (s *Storage) PromotePendingMember(ctx context.Context, ownerEmail, memberEmail string) error {
	const op = "storage.PromotePendingMember"

	query := `UPDATE team_members SET pending = FALSE
			  WHERE owner_email = $1 AND member_email = $2 AND pending;`
	res, err := s.db(ctx).ExecContext(ctx, query, ownerEmail, memberEmail)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

// RemovePendingMember drops a candidate without creating membership.
func (s *Storage) RemovePendingMember(ctx context.Context, ownerEmail, memberEmail string) error {
	const op = "storage.RemovePendingMember"

	query := `DELETE FROM team_members
			  WHERE owner_email = $1 AND member_email = $2 AND pending;`
	res, err := s.db(ctx).ExecContext(ctx, query, ownerEmail, memberEmail)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

// attachTeams fills the Team of every owner account in the map.
func (s *Storage) attachTeams(ctx context.Context, byEmail map[string]*models.User) error {
	query := `SELECT owner_email, member_email, pending
			  FROM team_members
			  ORDER BY added_at;`
	rows, err := s.db(ctx).QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var owner, member string
		var pending bool
		if err := rows.Scan(&owner, &member, &pending); err != nil {
			return err
		}
		u, ok := byEmail[owner]
		if !ok || u.Affiliation.Kind != models.AffiliationOwner {
			continue
		}
		if u.Affiliation.Team == nil {
			u.Affiliation.Team = &models.Team{}
		}
		if pending {
			u.Affiliation.Team.PendingMembers = append(u.Affiliation.Team.PendingMembers, member)
		} else {
			u.Affiliation.Team.Members = append(u.Affiliation.Team.Members, member)
		}
	}
	return rows.Err()
}
