package types

import "time"

// JobStatus is the lifecycle state of a job posting.
//
// Pending is the initial state. A TnP officer moves the posting to
// Approved or Rejected; both are terminal. Visibility to students is a
// separate concern handled by the IsActive flag and the deadline.
type JobStatus string

// Supported job statuses.
const (
	JobPending  JobStatus = "pending"
	JobApproved JobStatus = "approved"
	JobRejected JobStatus = "rejected"
)

// Valid reports whether the status is a supported value.
func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobApproved, JobRejected:
		return true
	}
	return false
}

// Job represents a job posting created by a recruiter.
type Job struct {
	// ID is the unique identifier of the job.
	ID int `json:"id" db:"id"`

	// RecruiterID identifies the recruiter who owns this posting.
	RecruiterID int `json:"recruiter_id" db:"recruiter_id"`

	// Title is the position title.
	Title string `json:"title" db:"title"`

	// Description contains the full job description.
	Description string `json:"description" db:"description"`

	// Company is the hiring company name.
	Company string `json:"company" db:"company"`

	// Location is the primary work location.
	Location string `json:"location" db:"location"`

	// Eligibility restricts which students may apply.
	Eligibility Eligibility `json:"eligibility" db:"eligibility"`

	// CTCMin and CTCMax bound the offered compensation in LPA.
	CTCMin float64 `json:"ctc_min" db:"ctc_min"`
	CTCMax float64 `json:"ctc_max" db:"ctc_max"`

	// Deadline is the last instant at which applications are accepted.
	Deadline time.Time `json:"deadline" db:"deadline"`

	// Status is the approval lifecycle state.
	Status JobStatus `json:"status" db:"status"`

	// ApprovedBy references the TnP officer who approved the posting.
	// Nil unless Status is JobApproved.
	ApprovedBy *int `json:"approved_by,omitempty" db:"approved_by"`

	// RejectionReason is set when Status is JobRejected.
	RejectionReason string `json:"rejection_reason,omitempty" db:"rejection_reason"`

	// IsActive is the soft-delete / visibility switch. Not a lifecycle
	// state: an Approved job can be deactivated without changing Status.
	IsActive bool `json:"is_active" db:"is_active"`

	// ApplicationCount is the number of non-withdrawn applications
	// referencing this job. Maintained incrementally on apply/withdraw.
	ApplicationCount int `json:"application_count" db:"application_count"`

	// CreatedAt is the timestamp at which the job was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the job.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Eligibility lists the criteria a student must meet to apply.
type Eligibility struct {
	// MinCGPA is the minimum CGPA on a 10-point scale. Zero means
	// no CGPA requirement.
	MinCGPA float64 `json:"min_cgpa"`

	// Branches restricts eligible branches. Empty means any branch.
	Branches []string `json:"branches,omitempty"`

	// GraduationYear restricts the graduating batch. Zero means any.
	GraduationYear int `json:"graduation_year,omitempty"`
}

// OpenFor reports whether the job accepts applications at the given instant.
func (j Job) OpenFor(now time.Time) bool {
	return j.Status == JobApproved && j.IsActive && !j.Deadline.Before(now)
}
