package types

import "time"

// ApplicationStatus is the review lifecycle state of an application.
//
// Applied is the initial state. The owning recruiter may move the
// application to any other enumerated status; the graph is deliberately
// permissive so recruiters can skip intermediate review stages.
type ApplicationStatus string

// Supported application statuses.
const (
	ApplicationApplied            ApplicationStatus = "applied"
	ApplicationUnderReview        ApplicationStatus = "under_review"
	ApplicationShortlisted        ApplicationStatus = "shortlisted"
	ApplicationInterviewScheduled ApplicationStatus = "interview_scheduled"
	ApplicationAccepted           ApplicationStatus = "accepted"
	ApplicationRejected           ApplicationStatus = "rejected"
)

// Valid reports whether the status is a supported value.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationApplied, ApplicationUnderReview, ApplicationShortlisted,
		ApplicationInterviewScheduled, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application links one student to one job. At most one application may
// exist per (job, student) pair; the storage layer enforces this.
type Application struct {
	// ID is the unique identifier of the application.
	ID int `json:"id" db:"id"`

	// JobID identifies the job applied to.
	JobID int `json:"job_id" db:"job_id"`

	// StudentID identifies the applying student.
	StudentID int `json:"student_id" db:"student_id"`

	// Status is the review lifecycle state.
	Status ApplicationStatus `json:"status" db:"status"`

	// Resume describes the attached resume file in object storage.
	Resume ResumeFile `json:"resume" db:"resume"`

	// ReviewedBy references the recruiter who last changed the status.
	ReviewedBy *int `json:"reviewed_by,omitempty" db:"reviewed_by"`

	// ReviewedAt is the timestamp of the last status change.
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`

	// ReviewNotes holds free-form recruiter notes.
	ReviewNotes string `json:"review_notes,omitempty" db:"review_notes"`

	// Interview holds scheduling details when an interview is set up.
	Interview *InterviewDetails `json:"interview,omitempty" db:"interview"`

	// ViewedByRecruiter is set once, on the first status change.
	ViewedByRecruiter bool `json:"viewed_by_recruiter" db:"viewed_by_recruiter"`

	// ViewedAt is the timestamp of the first status change.
	ViewedAt *time.Time `json:"viewed_at,omitempty" db:"viewed_at"`

	// CreatedAt is the timestamp when the application was submitted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ResumeFile describes an uploaded resume stored externally.
type ResumeFile struct {
	// ObjectKey is the identifier of the file in object storage.
	ObjectKey string `json:"object_key"`

	// Filename is the original upload filename.
	Filename string `json:"filename"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ContentType is the MIME type of the file.
	ContentType string `json:"content_type"`
}

// InterviewDetails describes a scheduled interview.
type InterviewDetails struct {
	// ScheduledAt is the interview date and time.
	ScheduledAt time.Time `json:"scheduled_at"`

	// Mode is how the interview is conducted, e.g. "online", "on_campus".
	Mode string `json:"mode"`

	// Venue is the location or meeting link.
	Venue string `json:"venue,omitempty"`
}
