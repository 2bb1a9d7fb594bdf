package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/models"
)

// RegisterUser inserts a new account. Duplicate emails map to ErrConflict.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) error {
	const op = "storage.RegisterUser"

	query := `INSERT INTO users (email, name, password_hash, role, plan, pending_plan,
			      subscription_start, subscription_end, subscription_status,
			      affiliation_kind, member_of)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`
	_, err := s.db(ctx).ExecContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.Role, user.Plan,
		planPtr(user.PendingPlan), user.SubscriptionStart, user.SubscriptionEnd,
		user.SubscriptionStatus, user.Affiliation.Kind, nullStr(user.Affiliation.OwnerEmail))
	if err != nil {
		return mapConstraintErr(op, err)
	}
	return nil
}

// GetUserByEmail returns the account with its team lists and notification
// ledger assembled. Missing accounts map to ErrNotFound.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT email, name, password_hash, role, plan, pending_plan,
			      subscription_start, subscription_end, subscription_status,
			      affiliation_kind, member_of
			  FROM users
			  WHERE email = $1;`
	u, err := scanUser(s.db(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if u.Affiliation.Kind == models.AffiliationOwner {
		team, err := s.ListTeam(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u.Affiliation.Team = team
	}
	notifications, err := s.ListNotifications(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.Notifications = notifications
	return u, nil
}

// GetAllUsers returns every account with teams and notifications assembled.
func (s *Storage) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.GetAllUsers"

	query := `SELECT email, name, password_hash, role, plan, pending_plan,
			      subscription_start, subscription_end, subscription_status,
			      affiliation_kind, member_of
			  FROM users
			  ORDER BY email;`
	rows, err := s.db(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	byEmail := make(map[string]*models.User)
	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		byEmail[u.Email] = u
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.attachTeams(ctx, byEmail); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.attachNotifications(ctx, byEmail); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetPendingPlan records or clears the plan awaiting approval.
func (s *Storage) SetPendingPlan(ctx context.Context, email string, plan *models.Plan) error {
	const op = "storage.SetPendingPlan"
	return s.updateUser(ctx, op, email,
		`UPDATE users SET pending_plan = $2 WHERE email = $1;`, planPtr(plan))
}

// ApplyPlan sets the authoritative plan, refreshes the subscription dates
// and status, and clears any pending plan marker.
func (s *Storage) ApplyPlan(ctx context.Context, email string, plan models.Plan, start, end *time.Time, status models.SubscriptionStatus) error {
	const op = "storage.ApplyPlan"
	return s.updateUser(ctx, op, email,
		`UPDATE users
		 SET plan = $2, pending_plan = NULL, subscription_start = $3,
		     subscription_end = $4, subscription_status = $5
		 WHERE email = $1;`, plan, start, end, status)
}

// UpdateSubscriptionStatus persists a recomputed status (write-through of
// the derived state machine value).
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, email string, status models.SubscriptionStatus) error {
	const op = "storage.UpdateSubscriptionStatus"
	return s.updateUser(ctx, op, email,
		`UPDATE users SET subscription_status = $2 WHERE email = $1;`, status)
}

// SetAffiliationOwner marks the account as a team owner.
func (s *Storage) SetAffiliationOwner(ctx context.Context, email string) error {
	const op = "storage.SetAffiliationOwner"
	return s.updateUser(ctx, op, email,
		`UPDATE users SET affiliation_kind = 'owner', member_of = NULL WHERE email = $1;`)
}

// SetMemberOf marks the account as a member of the owner's team.
func (s *Storage) SetMemberOf(ctx context.Context, email, ownerEmail string) error {
	const op = "storage.SetMemberOf"
	return s.updateUser(ctx, op, email,
		`UPDATE users SET affiliation_kind = 'member', member_of = $2 WHERE email = $1;`, ownerEmail)
}

// DeleteUserAndProjects removes the account, its team rows, notifications
// and projects as one unit.
func (s *Storage) DeleteUserAndProjects(ctx context.Context, email string) error {
	const op = "storage.DeleteUserAndProjects"
	return s.WithinTx(ctx, func(ctx context.Context) error {
		db := s.db(ctx)
		if _, err := db.ExecContext(ctx, `DELETE FROM projects WHERE user_email = $1;`, email); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if _, err := db.ExecContext(ctx,
			`DELETE FROM team_members WHERE owner_email = $1 OR member_email = $1;`, email); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		res, err := db.ExecContext(ctx, `DELETE FROM users WHERE email = $1;`, email)
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
	})
}

func (s *Storage) updateUser(ctx context.Context, op, email, query string, args ...any) error {
	all := append([]any{email}, args...)
	res, err := s.db(ctx).ExecContext(ctx, query, all...)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var pendingPlan, memberOf sql.NullString
	var start, end sql.NullTime
	var kind string
	if err := row.Scan(&u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Plan,
		&pendingPlan, &start, &end, &u.SubscriptionStatus, &kind, &memberOf); err != nil {
		return nil, err
	}
	if pendingPlan.Valid {
		p := models.Plan(pendingPlan.String)
		u.PendingPlan = &p
	}
	if start.Valid {
		t := start.Time
		u.SubscriptionStart = &t
	}
	if end.Valid {
		t := end.Time
		u.SubscriptionEnd = &t
	}
	switch models.AffiliationKind(kind) {
	case models.AffiliationOwner:
		u.Affiliation = models.OwnerAffiliation(nil)
	case models.AffiliationMember:
		u.Affiliation = models.MemberAffiliation(memberOf.String)
	default:
		u.Affiliation = models.StandaloneAffiliation()
	}
	return u, nil
}

func planPtr(p *models.Plan) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
