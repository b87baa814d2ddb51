package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/tnp-portal/apiserver/types"
)

// ApplicationRepository handles persistence for applications.
//
// Create and Delete also maintain jobs.application_count inside the same
// transaction, so the incremental counter cannot drift from the set of
// non-withdrawn applications.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, job_id, student_id, status, resume, reviewed_by, reviewed_at,
	review_notes, interview, viewed_by_recruiter, viewed_at, created_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }) (types.Application, error) {
	var app types.Application
	var resumeJSON []byte
	var interviewJSON []byte
	var reviewedBy sql.NullInt64
	var reviewedAt, viewedAt sql.NullTime
	err := row.Scan(
		&app.ID,
		&app.JobID,
		&app.StudentID,
		&app.Status,
		&resumeJSON,
		&reviewedBy,
		&reviewedAt,
		&app.ReviewNotes,
		&interviewJSON,
		&app.ViewedByRecruiter,
		&viewedAt,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Application{}, ErrNotFound
		}
		return types.Application{}, err
	}
	_ = json.Unmarshal(resumeJSON, &app.Resume)
	if len(interviewJSON) > 0 {
		var interview types.InterviewDetails
		if json.Unmarshal(interviewJSON, &interview) == nil {
			app.Interview = &interview
		}
	}
	if reviewedBy.Valid {
		id := int(reviewedBy.Int64)
		app.ReviewedBy = &id
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		app.ReviewedAt = &t
	}
	if viewedAt.Valid {
		t := viewedAt.Time
		app.ViewedAt = &t
	}
	return app, nil
}

func (r *ApplicationRepository) Get(ctx context.Context, id int) (types.Application, error) {
	const query = `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplication(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts the application and increments the owning job's
// application counter in one transaction. A duplicate (job, student)
// pair returns ErrConflict.
func (r *ApplicationRepository) Create(ctx context.Context, app types.Application) (types.Application, error) {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	resumeJSON, err := json.Marshal(app.Resume)
	if err != nil {
		return types.Application{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Application{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertQuery = `
		INSERT INTO applications (job_id, student_id, status, resume, review_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '', $5, $6)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insertQuery,
		app.JobID,
		app.StudentID,
		app.Status,
		resumeJSON,
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&app.ID); err != nil {
		return types.Application{}, mapConflict(err)
	}

	const counterQuery = `
		UPDATE jobs
		SET application_count = application_count + 1, updated_at = $2
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, counterQuery, app.JobID, now); err != nil {
		return types.Application{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Application{}, err
	}
	return app, nil
}

func (r *ApplicationRepository) Update(ctx context.Context, app types.Application) (types.Application, error) {
	app.UpdatedAt = time.Now()

	var reviewedBy sql.NullInt64
	if app.ReviewedBy != nil {
		reviewedBy = sql.NullInt64{Int64: int64(*app.ReviewedBy), Valid: true}
	}
	var reviewedAt, viewedAt sql.NullTime
	if app.ReviewedAt != nil {
		reviewedAt = sql.NullTime{Time: *app.ReviewedAt, Valid: true}
	}
	if app.ViewedAt != nil {
		viewedAt = sql.NullTime{Time: *app.ViewedAt, Valid: true}
	}
	var interviewJSON []byte
	if app.Interview != nil {
		var err error
		interviewJSON, err = json.Marshal(app.Interview)
		if err != nil {
			return types.Application{}, err
		}
	}

	const query = `
		UPDATE applications
		SET status = $1,
			reviewed_by = $2,
			reviewed_at = $3,
			review_notes = $4,
			interview = $5,
			viewed_by_recruiter = $6,
			viewed_at = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		app.Status,
		reviewedBy,
		reviewedAt,
		app.ReviewNotes,
		interviewJSON,
		app.ViewedByRecruiter,
		viewedAt,
		app.UpdatedAt,
		app.ID,
	)
	if err != nil {
		return types.Application{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Application{}, err
	}
	if affected == 0 {
		return types.Application{}, ErrNotFound
	}
	return app, nil
}

// Delete removes the application and decrements the owning job's
// application counter in one transaction.
func (r *ApplicationRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var jobID int
	const deleteQuery = `DELETE FROM applications WHERE id = $1 RETURNING job_id`
	if err := tx.QueryRowContext(ctx, deleteQuery, id).Scan(&jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	const counterQuery = `
		UPDATE jobs
		SET application_count = application_count - 1, updated_at = $2
		WHERE id = $1 AND application_count > 0`
	if _, err := tx.ExecContext(ctx, counterQuery, jobID, time.Now()); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ApplicationRepository) GetByJobAndStudent(ctx context.Context, jobID, studentID int) (types.Application, error) {
	const query = `SELECT ` + applicationColumns + ` FROM applications WHERE job_id = $1 AND student_id = $2`
	return scanApplication(r.db.QueryRowContext(ctx, query, jobID, studentID))
}

func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID, offset, limit int) ([]types.Application, int, error) {
	return r.list(ctx, `student_id = $1`, studentID, offset, limit)
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID, offset, limit int) ([]types.Application, int, error) {
	return r.list(ctx, `job_id = $1`, jobID, offset, limit)
}

func (r *ApplicationRepository) list(ctx context.Context, where string, arg any, offset, limit int) ([]types.Application, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM applications WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT ` + applicationColumns + ` FROM applications WHERE ` + where +
		` ORDER BY created_at DESC OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, arg, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	apps := make([]types.Application, 0, limit)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// CountByJob returns the number of applications referencing the job.
func (r *ApplicationRepository) CountByJob(ctx context.Context, jobID int) (int, error) {
	const query = `SELECT COUNT(1) FROM applications WHERE job_id = $1`
	var count int
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(&count)
	return count, err
}

// StudentApplicationCounts aggregates application numbers for one student.
type StudentApplicationCounts struct {
	Total       int
	Interviews  int
	Shortlisted int
	Accepted    int
}

func (r *ApplicationRepository) CountForStudent(ctx context.Context, studentID int) (StudentApplicationCounts, error) {
	const query = `
		SELECT COUNT(1),
		       COUNT(1) FILTER (WHERE status = 'interview_scheduled'),
		       COUNT(1) FILTER (WHERE status = 'shortlisted'),
		       COUNT(1) FILTER (WHERE status = 'accepted')
		FROM applications
		WHERE student_id = $1`
	var counts StudentApplicationCounts
	err := r.db.QueryRowContext(ctx, query, studentID).Scan(
		&counts.Total,
		&counts.Interviews,
		&counts.Shortlisted,
		&counts.Accepted,
	)
	return counts, err
}

// JobSetCounts aggregates applications across a set of job ids.
type JobSetCounts struct {
	Received    int
	Shortlisted int
}

// CountForJobs aggregates received/shortlisted applications across the
// given job ids.
func (r *ApplicationRepository) CountForJobs(ctx context.Context, jobIDs []int) (JobSetCounts, error) {
	if len(jobIDs) == 0 {
		return JobSetCounts{}, nil
	}

	const query = `
		SELECT COUNT(1),
		       COUNT(1) FILTER (WHERE status = 'shortlisted')
		FROM applications
		WHERE job_id = ANY($1)`
	var counts JobSetCounts
	err := r.db.QueryRowContext(ctx, query, pq.Array(jobIDs)).Scan(&counts.Received, &counts.Shortlisted)
	return counts, err
}
