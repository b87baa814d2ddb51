package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/tnp-portal/apiserver/types"
)

// ActivityRepository handles the append-only activity log.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(ctx context.Context, entry types.ActivityLog) error {
	entry.CreatedAt = time.Now()

	const query = `
		INSERT INTO activity_logs (actor_id, action, entity_kind, entity_id, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		entry.ActorID,
		entry.Action,
		entry.EntityKind,
		entry.EntityID,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	)
	return err
}

// ListRecent returns the newest entries, for the TnP audit view.
func (r *ActivityRepository) ListRecent(ctx context.Context, offset, limit int) ([]types.ActivityLog, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	const countQuery = `SELECT COUNT(1) FROM activity_logs`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, actor_id, action, entity_kind, entity_id, ip_address, user_agent, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]types.ActivityLog, 0, limit)
	for rows.Next() {
		var entry types.ActivityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.Action,
			&entry.EntityKind,
			&entry.EntityID,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
