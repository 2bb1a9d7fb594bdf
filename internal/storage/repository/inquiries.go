package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/inspec-ai/account-service/internal/lib/apperr"
	"github.com/inspec-ai/account-service/internal/models"
)

// CreatePlanInquiry stores a new pending plan change request. A second
// pending inquiry for the same email maps to ErrConflict (enforced by a
// partial unique index).
func (s *Storage) CreatePlanInquiry(ctx context.Context, inq models.PlanChangeInquiry) error {
	const op = "storage.CreatePlanInquiry"

	query := `INSERT INTO plan_inquiries
			      (id, user_email, user_name, requested_plan, submitted_at, status,
			       company_name, team_size, use_case, phone, payment_proof_image)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`
	_, err := s.db(ctx).ExecContext(ctx, query,
		inq.ID, inq.UserEmail, inq.UserName, inq.RequestedPlan, inq.SubmittedAt,
		inq.Status, inq.CompanyName, inq.TeamSize, inq.UseCase, inq.Phone,
		inq.PaymentProofImage)
	if err != nil {
		return mapConstraintErr(op, err)
	}
	return nil
}

// GetPlanInquiry returns the inquiry by id or ErrNotFound.
func (s *Storage) GetPlanInquiry(ctx context.Context, id string) (*models.PlanChangeInquiry, error) {
	const op = "storage.GetPlanInquiry"

	query := planInquirySelect + ` WHERE id = $1;`
	inq, err := scanPlanInquiry(s.db(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inq, nil
}

// ListPlanInquiries returns every plan change inquiry, newest first.
func (s *Storage) ListPlanInquiries(ctx context.Context) ([]models.PlanChangeInquiry, error) {
	const op = "storage.ListPlanInquiries"

	rows, err := s.db(ctx).QueryContext(ctx, planInquirySelect+` ORDER BY submitted_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.PlanChangeInquiry
	for rows.Next() {
		inq, err := scanPlanInquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *inq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// HasPendingPlanInquiry reports whether a pending plan change exists for
// the email.
func (s *Storage) HasPendingPlanInquiry(ctx context.Context, email string) (bool, error) {
	const op = "storage.HasPendingPlanInquiry"

	var exists bool
	query := `SELECT EXISTS (
			      SELECT 1 FROM plan_inquiries WHERE user_email = $1 AND status = 'pending'
			  );`
	if err := s.db(ctx).QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ResolvePlanInquiry flips a pending inquiry to the given resolution.
// Resolving an already-resolved inquiry maps to ErrInvalidState.
func (s *Storage) ResolvePlanInquiry(ctx context.Context, id string, to models.InquiryStatus) error {
	const op = "storage.ResolvePlanInquiry"
	return s.resolveInquiry(ctx, op, `plan_inquiries`, id, to)
}

// CreateTeamInquiry stores a new pending team member request. A duplicate
// pending (owner, member) pair maps to ErrConflict.
func (s *Storage) CreateTeamInquiry(ctx context.Context, inq models.TeamMemberInquiry) error {
	const op = "storage.CreateTeamInquiry"

	query := `INSERT INTO team_member_inquiries
			      (id, owner_email, owner_name, member_email, submitted_at, status,
			       payment_proof_image)
			  VALUES ($1, $2, $3, $4, $5, $6, $7);`
	_, err := s.db(ctx).ExecContext(ctx, query,
		inq.ID, inq.OwnerEmail, inq.OwnerName, inq.MemberEmail, inq.SubmittedAt,
		inq.Status, inq.PaymentProofImage)
	if err != nil {
		return mapConstraintErr(op, err)
	}
	return nil
}

// GetTeamInquiry returns the inquiry by id or ErrNotFound.
func (s *Storage) GetTeamInquiry(ctx context.Context, id string) (*models.TeamMemberInquiry, error) {
	const op = "storage.GetTeamInquiry"

	query := teamInquirySelect + ` WHERE id = $1;`
	inq, err := scanTeamInquiry(s.db(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inq, nil
}

// ListTeamInquiries returns every team member inquiry, newest first.
func (s *Storage) ListTeamInquiries(ctx context.Context) ([]models.TeamMemberInquiry, error) {
	const op = "storage.ListTeamInquiries"

	rows, err := s.db(ctx).QueryContext(ctx, teamInquirySelect+` ORDER BY submitted_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.TeamMemberInquiry
	for rows.Next() {
		inq, err := scanTeamInquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *inq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ResolveTeamInquiry flips a pending inquiry to the given resolution.
func (s *Storage) ResolveTeamInquiry(ctx context.Context, id string, to models.InquiryStatus) error {
	const op = "storage.ResolveTeamInquiry"
	return s.resolveInquiry(ctx, op, `team_member_inquiries`, id, to)
}

func (s *Storage) resolveInquiry(ctx context.Context, op, table, id string, to models.InquiryStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $2 WHERE id = $1 AND status = 'pending';`, table)
	res, err := s.db(ctx).ExecContext(ctx, query, id, to)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrInvalidState)
	}
	return nil
}

const planInquirySelect = `SELECT id, user_email, user_name, requested_plan, submitted_at,
			      status, company_name, team_size, use_case, phone, payment_proof_image
			  FROM plan_inquiries`

const teamInquirySelect = `SELECT id, owner_email, owner_name, member_email, submitted_at,
			      status, payment_proof_image
			  FROM team_member_inquiries`

func scanPlanInquiry(row rowScanner) (*models.PlanChangeInquiry, error) {
	inq := &models.PlanChangeInquiry{}
	if err := row.Scan(&inq.ID, &inq.UserEmail, &inq.UserName, &inq.RequestedPlan,
		&inq.SubmittedAt, &inq.Status, &inq.CompanyName, &inq.TeamSize, &inq.UseCase,
		&inq.Phone, &inq.PaymentProofImage); err != nil {
		return nil, err
	}
	return inq, nil
}

func scanTeamInquiry(row rowScanner) (*models.TeamMemberInquiry, error) {
	inq := &models.TeamMemberInquiry{}
	if err := row.Scan(&inq.ID, &inq.OwnerEmail, &inq.OwnerName, &inq.MemberEmail,
		&inq.SubmittedAt, &inq.Status, &inq.PaymentProofImage); err != nil {
		return nil, err
	}
	return inq, nil
}
