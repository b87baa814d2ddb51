package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role identifies the authorization level of a user within the portal.
type Role string

// Supported roles.
const (
	// RoleStudent is a student looking for placements.
	RoleStudent Role = "student"

	// RoleRecruiter is a company representative posting jobs.
	RoleRecruiter Role = "recruiter"

	// RoleTnP is a training-and-placement officer, the institutional
	// approver for job postings and student verification.
	RoleTnP Role = "tnp"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleRecruiter, RoleTnP:
		return true
	}
	return false
}

// PlacementStatus tracks where a student is in the placement process.
type PlacementStatus string

// Supported placement statuses.
const (
	PlacementNotPlaced PlacementStatus = "not_placed"
	PlacementInProcess PlacementStatus = "in_process"
	PlacementPlaced    PlacementStatus = "placed"
)

// Valid reports whether the placement status is a supported value.
func (p PlacementStatus) Valid() bool {
	switch p {
	case PlacementNotPlaced, PlacementInProcess, PlacementPlaced:
		return true
	}
	return false
}

// User represents an account in the system.
// It contains identity, role, and audit metadata. The role-specific
// profile lives in Details, keyed by Role.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. Unique across the system.
	Email string `json:"email" db:"email"`

	// Phone is the user's contact number.
	Phone string `json:"phone" db:"phone"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive is the soft-delete flag. Deactivated users cannot log in.
	IsActive bool `json:"is_active" db:"is_active"`

	// AvatarKey is the object-storage key of the user's avatar image,
	// empty when no avatar has been uploaded.
	AvatarKey string `json:"avatar_key,omitempty" db:"avatar_key"`

	// Details holds exactly one role-specific profile variant,
	// selected by Role.
	Details RoleDetails `json:"details" db:"details"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RoleDetails is a tagged union of role-specific profiles. Exactly one
// variant is non-nil, and it must match the owning user's Role.
type RoleDetails struct {
	Student   *StudentDetails   `json:"student,omitempty"`
	Recruiter *RecruiterDetails `json:"recruiter,omitempty"`
	TnP       *TnPDetails       `json:"tnp,omitempty"`
}

// StudentDetails is the profile variant for RoleStudent.
type StudentDetails struct {
	// CollegeID references the student's college.
	CollegeID int `json:"college_id"`

	// Course is the degree program, e.g. "B.Tech".
	Course string `json:"course"`

	// Branch is the department or specialization.
	Branch string `json:"branch"`

	// GraduationYear is the expected year of graduation.
	GraduationYear int `json:"graduation_year"`

	// CGPA is the cumulative grade point average on a 10-point scale.
	CGPA float64 `json:"cgpa"`

	// IsVerified is set by a TnP officer after checking the student's
	// documents. Unverified students cannot apply to jobs.
	IsVerified bool `json:"is_verified"`

	// PlacementStatus tracks the student's progress through placements.
	PlacementStatus PlacementStatus `json:"placement_status"`

	// MarksheetKey is the object-storage key of the uploaded marksheet.
	MarksheetKey string `json:"marksheet_key,omitempty"`
}

// RecruiterDetails is the profile variant for RoleRecruiter.
type RecruiterDetails struct {
	// CompanyName is the hiring company. Required.
	CompanyName string `json:"company_name"`

	// Designation is the recruiter's title within the company.
	Designation string `json:"designation"`

	// Website is the company website URL.
	Website string `json:"website,omitempty"`
}

// TnPDetails is the profile variant for RoleTnP.
type TnPDetails struct {
	// CollegeID references the college the officer belongs to. TnP
	// operations over students are scoped to this college.
	CollegeID int `json:"college_id"`

	// Designation is the officer's title, e.g. "Placement Coordinator".
	Designation string `json:"designation"`
}

// Validate checks that exactly the variant matching role is set and that
// its required fields are present.
func (d RoleDetails) Validate(role Role) error {
	switch role {
	case RoleStudent:
		if d.Student == nil || d.Recruiter != nil || d.TnP != nil {
			return errors.New("student details are required for role student")
		}
		return d.Student.validate()
	case RoleRecruiter:
		if d.Recruiter == nil || d.Student != nil || d.TnP != nil {
			return errors.New("recruiter details are required for role recruiter")
		}
		return d.Recruiter.validate()
	case RoleTnP:
		if d.TnP == nil || d.Student != nil || d.Recruiter != nil {
			return errors.New("tnp details are required for role tnp")
		}
		return d.TnP.validate()
	default:
		return fmt.Errorf("unsupported role: %q", role)
	}
}

func (s *StudentDetails) validate() error {
	if s.CollegeID < 1 {
		return errors.New("student college is required")
	}
	if strings.TrimSpace(s.Course) == "" {
		return errors.New("student course is required")
	}
	if strings.TrimSpace(s.Branch) == "" {
		return errors.New("student branch is required")
	}
	if s.CGPA < 0 || s.CGPA > 10 {
		return errors.New("cgpa must be between 0 and 10")
	}
	if s.PlacementStatus != "" && !s.PlacementStatus.Valid() {
		return fmt.Errorf("invalid placement status: %q", s.PlacementStatus)
	}
	return nil
}

func (r *RecruiterDetails) validate() error {
	if strings.TrimSpace(r.CompanyName) == "" {
		return errors.New("recruiter company name is required")
	}
	return nil
}

func (t *TnPDetails) validate() error {
	if t.CollegeID < 1 {
		return errors.New("tnp college is required")
	}
	return nil
}
