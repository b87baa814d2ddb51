package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/tnp-portal/apiserver/types"
)

// NotificationRepository handles persistence for notifications.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n types.Notification) (types.Notification, error) {
	n.CreatedAt = time.Now()

	const query = `
		INSERT INTO notifications (user_id, title, message, category, priority, is_read, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		n.UserID,
		n.Title,
		n.Message,
		n.Category,
		n.Priority,
		n.IsRead,
		n.ExpiresAt,
		n.CreatedAt,
	).Scan(&n.ID); err != nil {
		return types.Notification{}, err
	}
	return n, nil
}

// ListByUser returns the recipient's unexpired notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int, now time.Time, offset, limit int) ([]types.Notification, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	const countQuery = `SELECT COUNT(1) FROM notifications WHERE user_id = $1 AND expires_at > $2`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID, now).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, user_id, title, message, category, priority, is_read, expires_at, created_at
		FROM notifications
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
		OFFSET $3 LIMIT $4`
	rows, err := r.db.QueryContext(ctx, listQuery, userID, now, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifications := make([]types.Notification, 0, limit)
	for rows.Next() {
		var n types.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Title,
			&n.Message,
			&n.Category,
			&n.Priority,
			&n.IsRead,
			&n.ExpiresAt,
			&n.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// MarkRead marks one notification read. Scoped to the recipient so a
// user cannot touch another user's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// CountUnread returns the number of unread, unexpired notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int, now time.Time) (int, error) {
	const query = `SELECT COUNT(1) FROM notifications WHERE user_id = $1 AND is_read = FALSE AND expires_at > $2`
	var count int
	err := r.db.QueryRowContext(ctx, query, userID, now).Scan(&count)
	return count, err
}
