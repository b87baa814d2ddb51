package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/internal/store"
	"github.com/tnp-portal/apiserver/types"
)

// ApplicationRepository defines persistence operations for applications.
type ApplicationRepository interface {
	Get(ctx context.Context, id int) (types.Application, error)
	Create(ctx context.Context, app types.Application) (types.Application, error)
	Update(ctx context.Context, app types.Application) (types.Application, error)
	Delete(ctx context.Context, id int) error
	GetByJobAndStudent(ctx context.Context, jobID, studentID int) (types.Application, error)
	ListByStudent(ctx context.Context, studentID, offset, limit int) ([]types.Application, int, error)
	ListByJob(ctx context.Context, jobID, offset, limit int) ([]types.Application, int, error)
	CountByJob(ctx context.Context, jobID int) (int, error)
	CountForStudent(ctx context.Context, studentID int) (store.StudentApplicationCounts, error)
	CountForJobs(ctx context.Context, jobIDs []int) (store.JobSetCounts, error)
}

// ApplicationService encapsulates the application lifecycle:
// Applied -> {Under Review, Shortlisted, Interview Scheduled, Accepted,
// Rejected}. Status transitions by the owning recruiter are permissive;
// the creation and withdrawal preconditions are strict.
type ApplicationService struct {
	repo     ApplicationRepository
	jobs     JobRepository
	users    *UserService
	notifier *NotificationService
	activity *ActivityService
}

func NewApplicationService(
	repo ApplicationRepository,
	jobs JobRepository,
	users *UserService,
	notifier *NotificationService,
	activity *ActivityService,
) *ApplicationService {
	return &ApplicationService{
		repo:     repo,
		jobs:     jobs,
		users:    users,
		notifier: notifier,
		activity: activity,
	}
}

// Apply submits an application for student to the given job.
//
// Preconditions: the job is Approved, active and before its deadline;
// the student is verified, not placed, meets the eligibility criteria
// and has not applied before; a resume is attached. The (job, student)
// uniqueness is additionally enforced by the storage layer, so a
// concurrent duplicate fails with Conflict rather than inserting twice.
func (s *ApplicationService) Apply(ctx context.Context, student types.User, jobID int, resume types.ResumeFile, meta Meta) (types.Application, error) {
	if student.Details.Student == nil {
		return types.Application{}, apperr.Forbidden("student access required")
	}
	profile := student.Details.Student
	if !profile.IsVerified {
		return types.Application{}, apperr.Forbidden("profile must be verified before applying")
	}
	if profile.PlacementStatus == types.PlacementPlaced {
		return types.Application{}, apperr.BadRequest("placed students cannot apply")
	}
	if resume.ObjectKey == "" {
		return types.Application{}, apperr.BadRequest("resume is required")
	}

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Application{}, apperr.NotFound("job not found")
		}
		return types.Application{}, err
	}
	if !job.OpenFor(time.Now()) {
		return types.Application{}, apperr.BadRequest("job is not accepting applications")
	}
	if err := checkEligibility(job.Eligibility, profile); err != nil {
		return types.Application{}, err
	}

	if _, err := s.repo.GetByJobAndStudent(ctx, jobID, student.ID); err == nil {
		return types.Application{}, apperr.Conflict("already applied to this job")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Application{}, err
	}

	created, err := s.repo.Create(ctx, types.Application{
		JobID:     jobID,
		StudentID: student.ID,
		Status:    types.ApplicationApplied,
		Resume:    resume,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Application{}, apperr.Conflict("already applied to this job")
		}
		return types.Application{}, err
	}

	s.activity.Record(ctx, student.ID, types.ActionApplicationCreated, "application", created.ID, meta)
	s.notifier.NotifyApplicationReceived(ctx, job, student)
	return created, nil
}

// StatusUpdate is the recruiter's review payload.
type StatusUpdate struct {
	Status    types.ApplicationStatus
	Notes     string
	Interview *types.InterviewDetails
}

// UpdateStatus applies a review transition by the recruiter who owns the
// referenced job. Any enumerated status is accepted. The first transition
// also marks the application as viewed; accepting marks the student placed.
func (s *ApplicationService) UpdateStatus(ctx context.Context, recruiterID, id int, update StatusUpdate, meta Meta) (types.Application, error) {
	if !update.Status.Valid() {
		return types.Application{}, apperr.BadRequest("invalid application status")
	}

	app, err := s.get(ctx, id)
	if err != nil {
		return types.Application{}, err
	}

	job, err := s.jobs.Get(ctx, app.JobID)
	if err != nil {
		return types.Application{}, err
	}
	if job.RecruiterID != recruiterID {
		return types.Application{}, apperr.Forbidden("application belongs to another recruiter's job")
	}

	now := time.Now()
	app.Status = update.Status
	app.ReviewedBy = &recruiterID
	app.ReviewedAt = &now
	if update.Notes != "" {
		app.ReviewNotes = update.Notes
	}
	if update.Interview != nil {
		app.Interview = update.Interview
	}
	if !app.ViewedByRecruiter {
		app.ViewedByRecruiter = true
		app.ViewedAt = &now
	}

	updated, err := s.repo.Update(ctx, app)
	if err != nil {
		return types.Application{}, err
	}

	if update.Status == types.ApplicationAccepted {
		if err := s.users.SetPlacementStatus(ctx, app.StudentID, types.PlacementPlaced); err != nil {
			log.Printf("failed to mark student %d placed: %v", app.StudentID, err)
		}
	}

	s.activity.Record(ctx, recruiterID, types.ActionApplicationStatus, "application", id, meta)
	s.notifier.NotifyApplicationStatus(ctx, updated, job)
	return updated, nil
}

// Withdraw hard-deletes the student's own application. Only permitted
// while the status is still Applied; once reviewed, the record stays.
func (s *ApplicationService) Withdraw(ctx context.Context, studentID, id int, meta Meta) error {
	app, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if app.StudentID != studentID {
		return apperr.Forbidden("application belongs to another student")
	}
	if app.Status != types.ApplicationApplied {
		return apperr.BadRequest("only unreviewed applications can be withdrawn")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("application not found")
		}
		return err
	}
	s.activity.Record(ctx, studentID, types.ActionApplicationWithdrawn, "application", id, meta)
	return nil
}

// ListMine returns the student's own applications.
func (s *ApplicationService) ListMine(ctx context.Context, studentID, offset, limit int) ([]types.Application, int, error) {
	return s.repo.ListByStudent(ctx, studentID, offset, limit)
}

// ListForJob returns a job's applications for its owning recruiter or
// any TnP officer.
func (s *ApplicationService) ListForJob(ctx context.Context, viewer types.User, jobID, offset, limit int) ([]types.Application, int, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, 0, apperr.NotFound("job not found")
		}
		return nil, 0, err
	}
	if viewer.Role == types.RoleRecruiter && job.RecruiterID != viewer.ID {
		return nil, 0, apperr.Forbidden("job belongs to another recruiter")
	}
	return s.repo.ListByJob(ctx, jobID, offset, limit)
}

// GetForViewer loads one application for its student, the recruiter who
// owns the job, or any TnP officer. Used for resume downloads.
func (s *ApplicationService) GetForViewer(ctx context.Context, viewer types.User, id int) (types.Application, error) {
	app, err := s.get(ctx, id)
	if err != nil {
		return types.Application{}, err
	}

	switch viewer.Role {
	case types.RoleStudent:
		if app.StudentID != viewer.ID {
			return types.Application{}, apperr.Forbidden("application belongs to another student")
		}
	case types.RoleRecruiter:
		job, err := s.jobs.Get(ctx, app.JobID)
		if err != nil {
			return types.Application{}, err
		}
		if job.RecruiterID != viewer.ID {
			return types.Application{}, apperr.Forbidden("application belongs to another recruiter's job")
		}
	}
	return app, nil
}

func (s *ApplicationService) get(ctx context.Context, id int) (types.Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Application{}, apperr.NotFound("application not found")
		}
		return types.Application{}, err
	}
	return app, nil
}

func checkEligibility(criteria types.Eligibility, profile *types.StudentDetails) error {
	if criteria.MinCGPA > 0 && profile.CGPA < criteria.MinCGPA {
		return apperr.BadRequest("cgpa below the job's eligibility criteria")
	}
	if criteria.GraduationYear > 0 && profile.GraduationYear != criteria.GraduationYear {
		return apperr.BadRequest("graduation year does not match the job's eligibility criteria")
	}
	if len(criteria.Branches) > 0 {
		eligible := false
		for _, branch := range criteria.Branches {
			if branch == profile.Branch {
				eligible = true
				break
			}
		}
		if !eligible {
			return apperr.BadRequest("branch does not match the job's eligibility criteria")
		}
	}
	return nil
}
