package repository

import (
	"context"
	"fmt"

	"github.com/inspec-ai/account-service/internal/models"
)

// GetProjectsForUser returns the projects owned by the email.
func (s *Storage) GetProjectsForUser(ctx context.Context, email string) ([]models.Project, error) {
	const op = "storage.GetProjectsForUser"

	query := `SELECT id, name, user_email, created_at
			  FROM projects
			  WHERE user_email = $1
			  ORDER BY created_at;`
	rows, err := s.db(ctx).QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.UserEmail, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountProjectsByUser returns the number of projects per owner email.
func (s *Storage) CountProjectsByUser(ctx context.Context) (map[string]int, error) {
	const op = "storage.CountProjectsByUser"

	query := `SELECT user_email, COUNT(*) FROM projects GROUP BY user_email;`
	rows, err := s.db(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]int)
	for rows.Next() {
		var email string
		var count int
		if err := rows.Scan(&email, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[email] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
