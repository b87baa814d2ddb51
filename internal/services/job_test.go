package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/types"
)

func validJobInput(deadline time.Time) JobInput {
	return JobInput{
		Title:       "Backend Engineer",
		Description: "Build services",
		Company:     "Acme",
		Location:    "Remote",
		Eligibility: types.Eligibility{MinCGPA: 7},
		CTCMin:      10,
		CTCMax:      15,
		Deadline:    deadline,
	}
}

func TestJobCreateStartsPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	recruiter := f.recruiter(1)

	job, err := f.jobs.Create(ctx, recruiter.ID, validJobInput(time.Now().Add(48*time.Hour)), Meta{})
	require.NoError(t, err)

	assert.Equal(t, types.JobPending, job.Status)
	assert.True(t, job.IsActive)
	assert.Equal(t, recruiter.ID, job.RecruiterID)
	assert.Nil(t, job.ApprovedBy)
}

func TestJobCreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	input := validJobInput(time.Now().Add(-time.Hour))
	input.Title = "  "
	input.CTCMax = 5

	_, err := f.jobs.Create(ctx, 1, input, Meta{})
	require.Error(t, err)

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeBadRequest, appErr.Code)
	fields := make([]string, 0, len(appErr.Details))
	for _, detail := range appErr.Details {
		fields = append(fields, detail.Field)
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "deadline")
	assert.Contains(t, fields, "ctc_max")
}

func TestJobApprove(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	recruiter := f.recruiter(1)
	officer := f.officer(2, 1)

	job, err := f.jobs.Create(ctx, recruiter.ID, validJobInput(time.Now().Add(48*time.Hour)), Meta{})
	require.NoError(t, err)

	approved, err := f.jobs.Approve(ctx, officer.ID, job.ID, Meta{})
	require.NoError(t, err)

	assert.Equal(t, types.JobApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, officer.ID, *approved.ApprovedBy)

	// The owning recruiter hears about the approval.
	notifications := f.notificationRepo.forUser(recruiter.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, types.NotificationJob, notifications[0].Category)

	// Approval is terminal for moderation.
	_, err = f.jobs.Approve(ctx, officer.ID, job.ID, Meta{})
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
	_, err = f.jobs.Reject(ctx, officer.ID, job.ID, "late", Meta{})
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
}

func TestJobRejectRequiresReason(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	recruiter := f.recruiter(1)

	job, err := f.jobs.Create(ctx, recruiter.ID, validJobInput(time.Now().Add(48*time.Hour)), Meta{})
	require.NoError(t, err)

	_, err = f.jobs.Reject(ctx, 2, job.ID, "   ", Meta{})
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)

	rejected, err := f.jobs.Reject(ctx, 2, job.ID, "incomplete posting", Meta{})
	require.NoError(t, err)
	assert.Equal(t, types.JobRejected, rejected.Status)
	assert.Equal(t, "incomplete posting", rejected.RejectionReason)
	assert.Nil(t, rejected.ApprovedBy)
}

func TestJobUpdateFrozenAfterModeration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	recruiter := f.recruiter(1)

	job, err := f.jobs.Create(ctx, recruiter.ID, validJobInput(time.Now().Add(48*time.Hour)), Meta{})
	require.NoError(t, err)

	// Pending postings are editable by their owner.
	input := validJobInput(time.Now().Add(72 * time.Hour))
	input.Title = "Senior Backend Engineer"
	updated, err := f.jobs.Update(ctx, recruiter.ID, job.ID, input, Meta{})
	require.NoError(t, err)
	assert.Equal(t, "Senior Backend Engineer", updated.Title)

	// Not by anyone else.
	_, err = f.jobs.Update(ctx, 99, job.ID, input, Meta{})
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)

	_, err = f.jobs.Approve(ctx, 2, job.ID, Meta{})
	require.NoError(t, err)

	_, err = f.jobs.Update(ctx, recruiter.ID, job.ID, input, Meta{})
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
}

func TestJobDeleteBlockedByApplications(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	recruiter := f.recruiter(1)
	student := f.student(2, 1, true)
	job := f.approvedJob(1, recruiter.ID, time.Now().Add(48*time.Hour))

	_, err := f.apps.Apply(ctx, student, job.ID, types.ResumeFile{ObjectKey: "resumes/2/a.pdf"}, Meta{})
	require.NoError(t, err)

	err = f.jobs.Delete(ctx, recruiter, job.ID, Meta{})
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)

	empty := f.approvedJob(2, recruiter.ID, time.Now().Add(48*time.Hour))
	require.NoError(t, f.jobs.Delete(ctx, recruiter, empty.ID, Meta{}))

	// Soft delete: the row stays, flagged inactive.
	stored, err := f.jobRepo.Get(ctx, empty.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestJobDeleteOwnership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.recruiter(1)
	other := f.recruiter(2)
	officer := f.officer(3, 1)

	job := f.approvedJob(1, owner.ID, time.Now().Add(48*time.Hour))

	err := f.jobs.Delete(ctx, other, job.ID, Meta{})
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)

	// Officers may delete any posting.
	require.NoError(t, f.jobs.Delete(ctx, officer, job.ID, Meta{}))
}

func TestJobListForViewer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	recruiter := f.recruiter(1)
	other := f.recruiter(2)
	student := f.student(3, 1, true)
	officer := f.officer(4, 1)

	open := f.approvedJob(1, recruiter.ID, time.Now().Add(48*time.Hour))
	f.approvedJob(2, other.ID, time.Now().Add(-time.Hour)) // expired
	f.jobRepo.add(types.Job{ID: 3, RecruiterID: recruiter.ID, Status: types.JobPending, IsActive: true, Deadline: time.Now().Add(48 * time.Hour)})

	jobs, total, err := f.jobs.ListForViewer(ctx, student, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	assert.Equal(t, open.ID, jobs[0].ID)

	_, total, err = f.jobs.ListForViewer(ctx, recruiter, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, total, err = f.jobs.ListForViewer(ctx, officer, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestJobGetForViewerHidesClosedFromStudents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	recruiter := f.recruiter(1)
	student := f.student(2, 1, true)

	pending := f.jobRepo.add(types.Job{ID: 1, RecruiterID: recruiter.ID, Status: types.JobPending, IsActive: true, Deadline: time.Now().Add(48 * time.Hour)})

	_, err := f.jobs.GetForViewer(ctx, student, pending.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	// The owner still sees it; other recruiters do not.
	_, err = f.jobs.GetForViewer(ctx, recruiter, pending.ID)
	require.NoError(t, err)
	_, err = f.jobs.GetForViewer(ctx, f.recruiter(3), pending.ID)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
}
