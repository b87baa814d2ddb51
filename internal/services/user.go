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

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	ListStudentsByCollege(ctx context.Context, collegeID, offset, limit int) ([]types.User, int, error)
	CountStudentsByCollege(ctx context.Context, collegeID int) (store.StudentCounts, error)
	PlacementByCourse(ctx context.Context, collegeID int, from, to *time.Time) ([]store.CoursePlacement, error)
}

// UserService encapsulates account and profile use-cases.
type UserService struct {
	repo     UserRepository
	notifier *NotificationService
	activity *ActivityService
}

func NewUserService(repo UserRepository, notifier *NotificationService, activity *ActivityService) *UserService {
	return &UserService{
		repo:     repo,
		notifier: notifier,
		activity: activity,
	}
}

// Register creates a new account. The password must already be hashed.
func (s *UserService) Register(ctx context.Context, user types.User, meta Meta) (types.User, error) {
	if !user.Role.Valid() {
		return types.User{}, apperr.BadRequest("invalid role")
	}
	if err := user.Details.Validate(user.Role); err != nil {
		return types.User{}, apperr.BadRequest(err.Error())
	}
	if user.Role == types.RoleStudent {
		// Verification and placement state are never caller-controlled.
		user.Details.Student.IsVerified = false
		if user.Details.Student.PlacementStatus == "" {
			user.Details.Student.PlacementStatus = types.PlacementNotPlaced
		}
	}
	user.IsActive = true

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, apperr.Conflict("email already registered")
		}
		return types.User{}, err
	}

	s.activity.Record(ctx, created.ID, types.ActionUserRegistered, "user", created.ID, meta)
	return created, nil
}

// GetByID returns one user.
func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("user not found")
		}
		return types.User{}, err
	}
	return user, nil
}

// GetByEmail returns one user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("user not found")
		}
		return types.User{}, err
	}
	return user, nil
}

// ProfileUpdate is the self-service patch applied by UpdateProfile.
type ProfileUpdate struct {
	Name    string
	Phone   string
	Details *types.RoleDetails
}

// UpdateProfile applies a self-service profile patch. Privileged student
// fields (verification, placement status, marksheet) are preserved from
// the stored record regardless of the patch contents.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, patch ProfileUpdate, meta Meta) (types.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}

	if name := strings.TrimSpace(patch.Name); name != "" {
		user.Name = name
	}
	if phone := strings.TrimSpace(patch.Phone); phone != "" {
		user.Phone = phone
	}
	if patch.Details != nil {
		if err := patch.Details.Validate(user.Role); err != nil {
			return types.User{}, apperr.BadRequest(err.Error())
		}
		if user.Role == types.RoleStudent {
			prev := user.Details.Student
			patch.Details.Student.IsVerified = prev.IsVerified
			patch.Details.Student.PlacementStatus = prev.PlacementStatus
			patch.Details.Student.MarksheetKey = prev.MarksheetKey
		}
		user.Details = *patch.Details
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	s.activity.Record(ctx, userID, types.ActionUserUpdated, "user", userID, meta)
	return updated, nil
}

// SetPassword stores a new password hash.
func (s *UserService) SetPassword(ctx context.Context, userID int, passwordHash string, meta Meta) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.PasswordHash = passwordHash
	if _, err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.activity.Record(ctx, userID, types.ActionPasswordChanged, "user", userID, meta)
	return nil
}

// SetAvatar stores the object key of the user's avatar image.
func (s *UserService) SetAvatar(ctx context.Context, userID int, objectKey string) (types.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	user.AvatarKey = objectKey
	return s.repo.Update(ctx, user)
}

// SetMarksheet stores the object key of a student's marksheet.
func (s *UserService) SetMarksheet(ctx context.Context, userID int, objectKey string) (types.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	if user.Role != types.RoleStudent || user.Details.Student == nil {
		return types.User{}, apperr.BadRequest("only students have marksheets")
	}
	user.Details.Student.MarksheetKey = objectKey
	return s.repo.Update(ctx, user)
}

// ListStudents returns the roster of the officer's college.
func (s *UserService) ListStudents(ctx context.Context, officer types.User, offset, limit int) ([]types.User, int, error) {
	collegeID, err := officerCollege(officer)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.ListStudentsByCollege(ctx, collegeID, offset, limit)
}

// VerifyStudent marks a student of the officer's college as verified.
func (s *UserService) VerifyStudent(ctx context.Context, officer types.User, studentID int, meta Meta) (types.User, error) {
	student, err := s.scopedStudent(ctx, officer, studentID)
	if err != nil {
		return types.User{}, err
	}
	if student.Details.Student.IsVerified {
		return student, nil
	}

	student.Details.Student.IsVerified = true
	updated, err := s.repo.Update(ctx, student)
	if err != nil {
		return types.User{}, err
	}

	s.activity.Record(ctx, officer.ID, types.ActionStudentVerified, "user", studentID, meta)
	s.notifier.NotifyStudentVerified(ctx, studentID)
	return updated, nil
}

// DeactivateStudent soft-deletes a student of the officer's college.
func (s *UserService) DeactivateStudent(ctx context.Context, officer types.User, studentID int, meta Meta) error {
	student, err := s.scopedStudent(ctx, officer, studentID)
	if err != nil {
		return err
	}

	student.IsActive = false
	if _, err := s.repo.Update(ctx, student); err != nil {
		return err
	}
	s.activity.Record(ctx, officer.ID, types.ActionStudentDeactivated, "user", studentID, meta)
	return nil
}

// SetPlacementStatus updates a student's placement state. Used by the
// application lifecycle when an offer is accepted.
func (s *UserService) SetPlacementStatus(ctx context.Context, studentID int, status types.PlacementStatus) error {
	student, err := s.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student.Role != types.RoleStudent || student.Details.Student == nil {
		return apperr.BadRequest("user is not a student")
	}
	student.Details.Student.PlacementStatus = status
	_, err = s.repo.Update(ctx, student)
	return err
}

// scopedStudent loads a student and enforces the officer's college scope.
func (s *UserService) scopedStudent(ctx context.Context, officer types.User, studentID int) (types.User, error) {
	collegeID, err := officerCollege(officer)
	if err != nil {
		return types.User{}, err
	}

	student, err := s.GetByID(ctx, studentID)
	if err != nil {
		return types.User{}, err
	}
	if student.Role != types.RoleStudent || student.Details.Student == nil {
		return types.User{}, apperr.BadRequest("user is not a student")
	}
	if student.Details.Student.CollegeID != collegeID {
		return types.User{}, apperr.Forbidden("student belongs to a different college")
	}
	return student, nil
}

func officerCollege(officer types.User) (int, error) {
	if officer.Role != types.RoleTnP || officer.Details.TnP == nil {
		return 0, apperr.Forbidden("tnp access required")
	}
	return officer.Details.TnP.CollegeID, nil
}
