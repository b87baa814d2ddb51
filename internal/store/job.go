package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/tnp-portal/apiserver/types"
)

// JobRepository handles persistence for job postings.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, recruiter_id, title, description, company, location, eligibility,
	ctc_min, ctc_max, deadline, status, approved_by, rejection_reason,
	is_active, application_count, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (types.Job, error) {
	var job types.Job
	var eligibilityJSON []byte
	var approvedBy sql.NullInt64
	err := row.Scan(
		&job.ID,
		&job.RecruiterID,
		&job.Title,
		&job.Description,
		&job.Company,
		&job.Location,
		&eligibilityJSON,
		&job.CTCMin,
		&job.CTCMax,
		&job.Deadline,
		&job.Status,
		&approvedBy,
		&job.RejectionReason,
		&job.IsActive,
		&job.ApplicationCount,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Job{}, ErrNotFound
		}
		return types.Job{}, err
	}
	_ = json.Unmarshal(eligibilityJSON, &job.Eligibility)
	if approvedBy.Valid {
		id := int(approvedBy.Int64)
		job.ApprovedBy = &id
	}
	return job, nil
}

func (r *JobRepository) Get(ctx context.Context, id int) (types.Job, error) {
	const query = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return scanJob(r.db.QueryRowContext(ctx, query, id))
}

func (r *JobRepository) Create(ctx context.Context, job types.Job) (types.Job, error) {
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	eligibilityJSON, err := json.Marshal(job.Eligibility)
	if err != nil {
		return types.Job{}, err
	}

	const query = `
		INSERT INTO jobs (recruiter_id, title, description, company, location, eligibility,
			ctc_min, ctc_max, deadline, status, rejection_reason, is_active,
			application_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		job.RecruiterID,
		job.Title,
		job.Description,
		job.Company,
		job.Location,
		eligibilityJSON,
		job.CTCMin,
		job.CTCMax,
		job.Deadline,
		job.Status,
		job.RejectionReason,
		job.IsActive,
		job.ApplicationCount,
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(&job.ID); err != nil {
		return types.Job{}, err
	}
	return job, nil
}

func (r *JobRepository) Update(ctx context.Context, job types.Job) (types.Job, error) {
	job.UpdatedAt = time.Now()

	eligibilityJSON, err := json.Marshal(job.Eligibility)
	if err != nil {
		return types.Job{}, err
	}

	var approvedBy sql.NullInt64
	if job.ApprovedBy != nil {
		approvedBy = sql.NullInt64{Int64: int64(*job.ApprovedBy), Valid: true}
	}

	const query = `
		UPDATE jobs
		SET title = $1,
			description = $2,
			company = $3,
			location = $4,
			eligibility = $5,
			ctc_min = $6,
			ctc_max = $7,
			deadline = $8,
			status = $9,
			approved_by = $10,
			rejection_reason = $11,
			is_active = $12,
			updated_at = $13
		WHERE id = $14`
	result, err := r.db.ExecContext(
		ctx,
		query,
		job.Title,
		job.Description,
		job.Company,
		job.Location,
		eligibilityJSON,
		job.CTCMin,
		job.CTCMax,
		job.Deadline,
		job.Status,
		approvedBy,
		job.RejectionReason,
		job.IsActive,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return types.Job{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Job{}, err
	}
	if affected == 0 {
		return types.Job{}, ErrNotFound
	}
	return job, nil
}

// JobFilter restricts List to the postings visible to a caller.
type JobFilter struct {
	// RecruiterID limits to jobs owned by the recruiter when non-zero.
	RecruiterID int

	// OpenOnly limits to approved, active, non-expired postings.
	OpenOnly bool

	// Now is the reference instant for OpenOnly deadline checks.
	Now time.Time
}

func (r *JobRepository) List(ctx context.Context, filter JobFilter, offset, limit int) ([]types.Job, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	where := `TRUE`
	args := []any{}
	if filter.RecruiterID > 0 {
		args = append(args, filter.RecruiterID)
		where = `recruiter_id = $1`
	}
	if filter.OpenOnly {
		args = append(args, filter.Now)
		where += ` AND status = 'approved' AND is_active = TRUE AND deadline >= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, offset, limit)
	listQuery := `SELECT ` + jobColumns + ` FROM jobs WHERE ` + where +
		` ORDER BY created_at DESC OFFSET $` + strconv.Itoa(len(args)-1) + ` LIMIT $` + strconv.Itoa(len(args))
	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := make([]types.Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// IDsForRecruiter returns the ids of all jobs owned by the recruiter.
func (r *JobRepository) IDsForRecruiter(ctx context.Context, recruiterID int) ([]int, error) {
	const query = `SELECT id FROM jobs WHERE recruiter_id = $1`
	rows, err := r.db.QueryContext(ctx, query, recruiterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecruiterJobCounts aggregates posting numbers for one recruiter.
type RecruiterJobCounts struct {
	Posted  int
	Active  int
	Pending int
}

func (r *JobRepository) CountForRecruiter(ctx context.Context, recruiterID int) (RecruiterJobCounts, error) {
	const query = `
		SELECT COUNT(1),
		       COUNT(1) FILTER (WHERE status = 'approved' AND is_active),
		       COUNT(1) FILTER (WHERE status = 'pending')
		FROM jobs
		WHERE recruiter_id = $1`
	var counts RecruiterJobCounts
	err := r.db.QueryRowContext(ctx, query, recruiterID).Scan(&counts.Posted, &counts.Active, &counts.Pending)
	return counts, err
}

// StatusCounts aggregates system-wide posting numbers by lifecycle status.
type StatusCounts struct {
	Pending  int
	Approved int
}

func (r *JobRepository) CountByStatus(ctx context.Context) (StatusCounts, error) {
	const query = `
		SELECT COUNT(1) FILTER (WHERE status = 'pending'),
		       COUNT(1) FILTER (WHERE status = 'approved')
		FROM jobs`
	var counts StatusCounts
	err := r.db.QueryRowContext(ctx, query).Scan(&counts.Pending, &counts.Approved)
	return counts, err
}
