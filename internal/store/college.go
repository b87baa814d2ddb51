package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tnp-portal/apiserver/types"
)

// CollegeRepository handles persistence for colleges.
type CollegeRepository struct {
	db *sql.DB
}

func NewCollegeRepository(db *sql.DB) *CollegeRepository {
	return &CollegeRepository{db: db}
}

func (r *CollegeRepository) Get(ctx context.Context, id int) (types.College, error) {
	const query = `SELECT id, name, city, state, created_at FROM colleges WHERE id = $1`
	var college types.College
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&college.ID,
		&college.Name,
		&college.City,
		&college.State,
		&college.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.College{}, ErrNotFound
		}
		return types.College{}, err
	}
	return college, nil
}

func (r *CollegeRepository) List(ctx context.Context) ([]types.College, error) {
	const query = `SELECT id, name, city, state, created_at FROM colleges ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var colleges []types.College
	for rows.Next() {
		var college types.College
		if err := rows.Scan(
			&college.ID,
			&college.Name,
			&college.City,
			&college.State,
			&college.CreatedAt,
		); err != nil {
			return nil, err
		}
		colleges = append(colleges, college)
	}
	return colleges, rows.Err()
}

// Create inserts a college. Used only by the seed process; a duplicate
// name returns ErrConflict.
func (r *CollegeRepository) Create(ctx context.Context, college types.College) (types.College, error) {
	college.CreatedAt = time.Now()

	const query = `
		INSERT INTO colleges (name, city, state, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		college.Name,
		college.City,
		college.State,
		college.CreatedAt,
	).Scan(&college.ID); err != nil {
		return types.College{}, mapConflict(err)
	}
	return college, nil
}
