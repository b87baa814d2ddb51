package types

import "time"

// ActivityLog is an append-only audit record written alongside every
// mutating operation. Never updated or deleted through the API.
type ActivityLog struct {
	ID         int       `json:"id" db:"id"`
	ActorID    int       `json:"actor_id" db:"actor_id"`
	Action     string    `json:"action" db:"action"`
	EntityKind string    `json:"entity_kind" db:"entity_kind"`
	EntityID   int       `json:"entity_id" db:"entity_id"`
	IPAddress  string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Activity action kinds recorded by the services.
const (
	ActionUserRegistered       = "user.registered"
	ActionUserLogin            = "user.login"
	ActionUserLogout           = "user.logout"
	ActionUserUpdated          = "user.updated"
	ActionPasswordChanged      = "user.password_changed"
	ActionStudentVerified      = "user.student_verified"
	ActionStudentDeactivated   = "user.student_deactivated"
	ActionJobCreated           = "job.created"
	ActionJobUpdated           = "job.updated"
	ActionJobApproved          = "job.approved"
	ActionJobRejected          = "job.rejected"
	ActionJobDeleted           = "job.deleted"
	ActionApplicationCreated   = "application.created"
	ActionApplicationStatus    = "application.status_changed"
	ActionApplicationWithdrawn = "application.withdrawn"
)
