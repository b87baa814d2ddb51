package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/tnp-portal/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, phone, role, password_hash, is_active, avatar_key, details, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	var detailsJSON []byte
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.PasswordHash,
		&user.IsActive,
		&user.AvatarKey,
		&detailsJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	_ = json.Unmarshal(detailsJSON, &user.Details)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	detailsJSON, err := json.Marshal(user.Details)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (name, email, phone, role, password_hash, is_active, avatar_key, details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Phone,
		user.Role,
		user.PasswordHash,
		user.IsActive,
		user.AvatarKey,
		detailsJSON,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, mapConflict(err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	detailsJSON, err := json.Marshal(user.Details)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			phone = $3,
			role = $4,
			password_hash = $5,
			is_active = $6,
			avatar_key = $7,
			details = $8,
			updated_at = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Phone,
		user.Role,
		user.PasswordHash,
		user.IsActive,
		user.AvatarKey,
		detailsJSON,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, mapConflict(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// ListStudentsByCollege returns active students of the given college,
// paginated, newest first.
func (r *UserRepository) ListStudentsByCollege(ctx context.Context, collegeID, offset, limit int) ([]types.User, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	const countQuery = `
		SELECT COUNT(1)
		FROM users
		WHERE role = 'student'
		  AND is_active = TRUE
		  AND (details->'student'->>'college_id')::int = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, collegeID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = 'student'
		  AND is_active = TRUE
		  AND (details->'student'->>'college_id')::int = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, collegeID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]types.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// StudentCounts aggregates student numbers for a college.
type StudentCounts struct {
	Total    int
	Verified int
	Placed   int
}

// CountStudentsByCollege aggregates total/verified/placed active students
// for the given college.
func (r *UserRepository) CountStudentsByCollege(ctx context.Context, collegeID int) (StudentCounts, error) {
	const query = `
		SELECT COUNT(1),
		       COUNT(1) FILTER (WHERE (details->'student'->>'is_verified')::boolean),
		       COUNT(1) FILTER (WHERE details->'student'->>'placement_status' = 'placed')
		FROM users
		WHERE role = 'student'
		  AND is_active = TRUE
		  AND (details->'student'->>'college_id')::int = $1`
	var counts StudentCounts
	err := r.db.QueryRowContext(ctx, query, collegeID).Scan(&counts.Total, &counts.Verified, &counts.Placed)
	return counts, err
}

// CoursePlacement aggregates placement numbers for one course.
type CoursePlacement struct {
	Course string
	Total  int
	Placed int
}

// PlacementByCourse groups student placement counts by course for a
// college, optionally windowed on account creation time.
func (r *UserRepository) PlacementByCourse(ctx context.Context, collegeID int, from, to *time.Time) ([]CoursePlacement, error) {
	const query = `
		SELECT COALESCE(details->'student'->>'course', ''),
		       COUNT(1),
		       COUNT(1) FILTER (WHERE details->'student'->>'placement_status' = 'placed')
		FROM users
		WHERE role = 'student'
		  AND is_active = TRUE
		  AND (details->'student'->>'college_id')::int = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		GROUP BY 1
		ORDER BY 1`
	rows, err := r.db.QueryContext(ctx, query, collegeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []CoursePlacement
	for rows.Next() {
		var group CoursePlacement
		if err := rows.Scan(&group.Course, &group.Total, &group.Placed); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}
