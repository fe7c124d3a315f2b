package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Ensure registers user, reactivating them if they were deactivated.
func (s *Store) Ensure(ctx context.Context, user int64) error {
	now := s.timestamp()
	err := s.exec(ctx, `
		INSERT INTO users (user_id, is_active, created_at, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET is_active = 1, updated_at = excluded.updated_at`,
		user, now, now)
	if err != nil {
		return fmt.Errorf("ensure user %d: %w", user, err)
	}
	return nil
}

// StatusMessageID returns the user's status message id, if one is recorded.
func (s *Store) StatusMessageID(ctx context.Context, user int64) (int, bool, error) {
	var id sql.NullInt64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT status_message_id FROM users WHERE user_id = ?", user).Scan(&id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read status message for %d: %w", user, err)
	}
	if !id.Valid || id.Int64 == 0 {
		return 0, false, nil
	}
	return int(id.Int64), true, nil
}

// SetStatusMessageID records the user's status message, registering the user
// when needed.
func (s *Store) SetStatusMessageID(ctx context.Context, user int64, messageID int) error {
	now := s.timestamp()
	err := s.exec(ctx, `
		INSERT INTO users (user_id, status_message_id, is_active, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET status_message_id = excluded.status_message_id, updated_at = excluded.updated_at`,
		user, messageID, now, now)
	if err != nil {
		return fmt.Errorf("set status message for %d: %w", user, err)
	}
	return nil
}

// ClearStatusMessageID forgets the user's status message.
func (s *Store) ClearStatusMessageID(ctx context.Context, user int64) error {
	if err := s.exec(ctx, "UPDATE users SET status_message_id = NULL, updated_at = ? WHERE user_id = ?", s.timestamp(), user); err != nil {
		return fmt.Errorf("clear status message for %d: %w", user, err)
	}
	return nil
}

// IsActive reports whether the user is registered and active.
func (s *Store) IsActive(ctx context.Context, user int64) (bool, error) {
	var active int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT is_active FROM users WHERE user_id = ?", user).Scan(&active)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read user %d: %w", user, err)
	}
	return active != 0, nil
}

// Deactivate marks the user unreachable. Unknown users are ignored.
func (s *Store) Deactivate(ctx context.Context, user int64) error {
	if err := s.exec(ctx, "UPDATE users SET is_active = 0, updated_at = ? WHERE user_id = ?", s.timestamp(), user); err != nil {
		return fmt.Errorf("deactivate user %d: %w", user, err)
	}
	return nil
}

// ListActive returns active users ordered by id.
func (s *Store) ListActive(ctx context.Context) ([]User, error) {
	return s.list(ctx, "WHERE is_active = 1")
}

// List returns every user ordered by id.
func (s *Store) List(ctx context.Context) ([]User, error) {
	return s.list(ctx, "")
}

func (s *Store) list(ctx context.Context, where string) ([]User, error) {
	query := "SELECT user_id, status_message_id, is_active, created_at, updated_at FROM users " + where + " ORDER BY user_id"
	var users []User
	err := retryOnBusy(ctx, func() error {
		users = users[:0]
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				u         User
				statusID  sql.NullInt64
				active    int
				createdAt string
				updatedAt string
			)
			if err := rows.Scan(&u.ID, &statusID, &active, &createdAt, &updatedAt); err != nil {
				return err
			}
			u.StatusMessageID = int(statusID.Int64)
			u.Active = active != 0
			u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
			u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
			users = append(users, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
