package repository

import (
	"context"
	"fmt"

	"github.com/inspec-ai/account-service/internal/models"
)

// AppendNotification inserts a ledger entry for the user.
func (s *Storage) AppendNotification(ctx context.Context, email string, n models.Notification) error {
	const op = "storage.AppendNotification"

	query := `INSERT INTO notifications (id, user_email, message, severity, created_at, read)
			  VALUES ($1, $2, $3, $4, $5, $6);`
	if _, err := s.db(ctx).ExecContext(ctx, query,
		n.ID, email, n.Message, n.Severity, n.CreatedAt, n.Read); err != nil {
		return mapConstraintErr(op, err)
	}
	return nil
}

// ListNotifications returns the user's ledger, newest first.
func (s *Storage) ListNotifications(ctx context.Context, email string) ([]models.Notification, error) {
	const op = "storage.ListNotifications"

	query := `SELECT id, message, severity, created_at, read
			  FROM notifications
			  WHERE user_email = $1
			  ORDER BY created_at DESC, id;`
	rows, err := s.db(ctx).QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Message, &n.Severity, &n.CreatedAt, &n.Read); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkNotificationRead flips the read flag. Unknown or already-read ids
// are a no-op so duplicate UI actions never fail.
func (s *Storage) MarkNotificationRead(ctx context.Context, email, id string) error {
	const op = "storage.MarkNotificationRead"

	query := `UPDATE notifications SET read = TRUE
			  WHERE user_email = $1 AND id = $2;`
	if _, err := s.db(ctx).ExecContext(ctx, query, email, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkAllNotificationsRead sets every read flag for the user in one
// statement.
func (s *Storage) MarkAllNotificationsRead(ctx context.Context, email string) error {
	const op = "storage.MarkAllNotificationsRead"

	query := `UPDATE notifications SET read = TRUE WHERE user_email = $1;`
	if _, err := s.db(ctx).ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// attachNotifications fills the ledger of every account in the map.
func (s *Storage) attachNotifications(ctx context.Context, byEmail map[string]*models.User) error {
	query := `SELECT user_email, id, message, severity, created_at, read
			  FROM notifications
			  ORDER BY created_at DESC, id;`
	rows, err := s.db(ctx).QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var email string
		var n models.Notification
		if err := rows.Scan(&email, &n.ID, &n.Message, &n.Severity, &n.CreatedAt, &n.Read); err != nil {
			return err
		}
		if u, ok := byEmail[email]; ok {
			u.Notifications = append(u.Notifications, n)
		}
	}
	return rows.Err()
}
