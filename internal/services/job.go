package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/internal/store"
	"github.com/tnp-portal/apiserver/types"
)

// JobRepository defines persistence operations for job postings.
type JobRepository interface {
	Get(ctx context.Context, id int) (types.Job, error)
	Create(ctx context.Context, job types.Job) (types.Job, error)
	Update(ctx context.Context, job types.Job) (types.Job, error)
	List(ctx context.Context, filter store.JobFilter, offset, limit int) ([]types.Job, int, error)
	IDsForRecruiter(ctx context.Context, recruiterID int) ([]int, error)
	CountForRecruiter(ctx context.Context, recruiterID int) (store.RecruiterJobCounts, error)
	CountByStatus(ctx context.Context) (store.StatusCounts, error)
}

// JobService encapsulates the job posting lifecycle:
// Pending -> Approved | Rejected, with per-role visibility.
type JobService struct {
	repo     JobRepository
	apps     ApplicationRepository
	notifier *NotificationService
	activity *ActivityService
}

func NewJobService(repo JobRepository, apps ApplicationRepository, notifier *NotificationService, activity *ActivityService) *JobService {
	return &JobService{
		repo:     repo,
		apps:     apps,
		notifier: notifier,
		activity: activity,
	}
}

// JobInput is the caller-supplied posting payload.
type JobInput struct {
	Title       string
	Description string
	Company     string
	Location    string
	Eligibility types.Eligibility
	CTCMin      float64
	CTCMax      float64
	Deadline    time.Time
}

func (in JobInput) validate(now time.Time) error {
	var details []apperr.FieldError
	if strings.TrimSpace(in.Title) == "" {
		details = append(details, apperr.FieldError{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(in.Description) == "" {
		details = append(details, apperr.FieldError{Field: "description", Message: "description is required"})
	}
	if strings.TrimSpace(in.Company) == "" {
		details = append(details, apperr.FieldError{Field: "company", Message: "company is required"})
	}
	if in.Deadline.IsZero() || in.Deadline.Before(now) {
		details = append(details, apperr.FieldError{Field: "deadline", Message: "deadline must be in the future"})
	}
	if in.CTCMin < 0 {
		details = append(details, apperr.FieldError{Field: "ctc_min", Message: "ctc_min must be non-negative"})
	}
	if in.CTCMax < in.CTCMin {
		details = append(details, apperr.FieldError{Field: "ctc_max", Message: "ctc_max must be at least ctc_min"})
	}
	if in.Eligibility.MinCGPA < 0 || in.Eligibility.MinCGPA > 10 {
		details = append(details, apperr.FieldError{Field: "eligibility.min_cgpa", Message: "min_cgpa must be between 0 and 10"})
	}
	if len(details) > 0 {
		return apperr.Validation("invalid job payload", details)
	}
	return nil
}

// Create inserts a new posting in the Pending state, owned by recruiterID.
func (s *JobService) Create(ctx context.Context, recruiterID int, input JobInput, meta Meta) (types.Job, error) {
	if err := input.validate(time.Now()); err != nil {
		return types.Job{}, err
	}

	job := types.Job{
		RecruiterID: recruiterID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Company:     strings.TrimSpace(input.Company),
		Location:    strings.TrimSpace(input.Location),
		Eligibility: input.Eligibility,
		CTCMin:      input.CTCMin,
		CTCMax:      input.CTCMax,
		Deadline:    input.Deadline,
		Status:      types.JobPending,
		IsActive:    true,
	}

	created, err := s.repo.Create(ctx, job)
	if err != nil {
		return types.Job{}, err
	}
	s.activity.Record(ctx, recruiterID, types.ActionJobCreated, "job", created.ID, meta)
	return created, nil
}

// ListForViewer applies the per-role visibility filter:
// students see open postings, recruiters their own, TnP everything.
func (s *JobService) ListForViewer(ctx context.Context, viewer types.User, offset, limit int) ([]types.Job, int, error) {
	filter := store.JobFilter{}
	switch viewer.Role {
	case types.RoleStudent:
		filter.OpenOnly = true
		filter.Now = time.Now()
	case types.RoleRecruiter:
		filter.RecruiterID = viewer.ID
	case types.RoleTnP:
		// no filter
	default:
		return nil, 0, apperr.Forbidden("unknown role")
	}
	return s.repo.List(ctx, filter, offset, limit)
}

// GetForViewer loads one posting, subject to the same visibility rules.
func (s *JobService) GetForViewer(ctx context.Context, viewer types.User, id int) (types.Job, error) {
	job, err := s.get(ctx, id)
	if err != nil {
		return types.Job{}, err
	}

	switch viewer.Role {
	case types.RoleStudent:
		if !job.OpenFor(time.Now()) {
			return types.Job{}, apperr.NotFound("job not found")
		}
	case types.RoleRecruiter:
		if job.RecruiterID != viewer.ID {
			return types.Job{}, apperr.Forbidden("job belongs to another recruiter")
		}
	}
	return job, nil
}

// Update patches a posting. Only the owning recruiter may update, and
// only while the posting is still Pending: approval freezes it.
func (s *JobService) Update(ctx context.Context, recruiterID, id int, input JobInput, meta Meta) (types.Job, error) {
	job, err := s.get(ctx, id)
	if err != nil {
		return types.Job{}, err
	}
	if job.RecruiterID != recruiterID {
		return types.Job{}, apperr.Forbidden("job belongs to another recruiter")
	}
	switch job.Status {
	case types.JobApproved:
		return types.Job{}, apperr.BadRequest("cannot update approved jobs")
	case types.JobRejected:
		return types.Job{}, apperr.BadRequest("cannot update rejected jobs")
	}
	if err := input.validate(time.Now()); err != nil {
		return types.Job{}, err
	}

	job.Title = strings.TrimSpace(input.Title)
	job.Description = strings.TrimSpace(input.Description)
	job.Company = strings.TrimSpace(input.Company)
	job.Location = strings.TrimSpace(input.Location)
	job.Eligibility = input.Eligibility
	job.CTCMin = input.CTCMin
	job.CTCMax = input.CTCMax
	job.Deadline = input.Deadline

	updated, err := s.repo.Update(ctx, job)
	if err != nil {
		return types.Job{}, err
	}
	s.activity.Record(ctx, recruiterID, types.ActionJobUpdated, "job", id, meta)
	return updated, nil
}

// Approve moves a Pending posting to Approved and notifies the owner.
func (s *JobService) Approve(ctx context.Context, officerID, id int, meta Meta) (types.Job, error) {
	job, err := s.get(ctx, id)
	if err != nil {
		return types.Job{}, err
	}
	if job.Status != types.JobPending {
		return types.Job{}, apperr.BadRequest("only pending jobs can be approved")
	}

	job.Status = types.JobApproved
	job.ApprovedBy = &officerID
	job.RejectionReason = ""

	updated, err := s.repo.Update(ctx, job)
	if err != nil {
		return types.Job{}, err
	}
	s.activity.Record(ctx, officerID, types.ActionJobApproved, "job", id, meta)
	s.notifier.NotifyJobApproved(ctx, updated)
	return updated, nil
}

// Reject moves a Pending posting to Rejected with a mandatory reason
// and notifies the owner.
func (s *JobService) Reject(ctx context.Context, officerID, id int, reason string, meta Meta) (types.Job, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return types.Job{}, apperr.BadRequest("rejection reason is required")
	}

	job, err := s.get(ctx, id)
	if err != nil {
		return types.Job{}, err
	}
	if job.Status != types.JobPending {
		return types.Job{}, apperr.BadRequest("only pending jobs can be rejected")
	}

	job.Status = types.JobRejected
	job.ApprovedBy = nil
	job.RejectionReason = reason

	updated, err := s.repo.Update(ctx, job)
	if err != nil {
		return types.Job{}, err
	}
	s.activity.Record(ctx, officerID, types.ActionJobRejected, "job", id, meta)
	s.notifier.NotifyJobRejected(ctx, updated)
	return updated, nil
}

// Delete soft-deletes a posting with no applications. Recruiters may
// only target their own postings; TnP may target any.
func (s *JobService) Delete(ctx context.Context, actor types.User, id int, meta Meta) error {
	job, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role == types.RoleRecruiter && job.RecruiterID != actor.ID {
		return apperr.Forbidden("job belongs to another recruiter")
	}

	count, err := s.apps.CountByJob(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.BadRequest("cannot delete a job with applications")
	}

	job.IsActive = false
	if _, err := s.repo.Update(ctx, job); err != nil {
		return err
	}
	s.activity.Record(ctx, actor.ID, types.ActionJobDeleted, "job", id, meta)
	return nil
}

func (s *JobService) get(ctx context.Context, id int) (types.Job, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Job{}, apperr.NotFound("job not found")
		}
		return types.Job{}, err
	}
	return job, nil
}
