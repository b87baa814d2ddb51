package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/types"
)

func registration(email string) types.User {
	return types.User{
		Name:         "Asha",
		Email:        email,
		Role:         types.RoleStudent,
		PasswordHash: "$2a$10$hash",
		Details: types.RoleDetails{Student: &types.StudentDetails{
			CollegeID:      1,
			Course:         "B.Tech",
			Branch:         "CSE",
			GraduationYear: 2026,
			CGPA:           8.1,
		}},
	}
}

func TestRegisterForcesUnprivilegedState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user := registration("asha@example.com")
	// Self-claimed verification must not survive registration.
	user.Details.Student.IsVerified = true

	created, err := f.users.Register(ctx, user, Meta{})
	require.NoError(t, err)

	assert.False(t, created.Details.Student.IsVerified)
	assert.Equal(t, types.PlacementNotPlaced, created.Details.Student.PlacementStatus)
	assert.True(t, created.IsActive)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.users.Register(ctx, registration("asha@example.com"), Meta{})
	require.NoError(t, err)

	_, err = f.users.Register(ctx, registration("asha@example.com"), Meta{})
	assert.Equal(t, apperr.CodeConflict, apperr.From(err).Code)
}

func TestRegisterRejectsMismatchedDetails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user := registration("asha@example.com")
	user.Role = types.RoleRecruiter // student details under a recruiter role

	_, err := f.users.Register(ctx, user, Meta{})
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)

	user.Role = "admin"
	_, err = f.users.Register(ctx, user, Meta{})
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
}

func TestUpdateProfilePreservesPrivilegedFields(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	officer := f.officer(1, 1)
	student := f.student(2, 1, false)

	_, err := f.users.VerifyStudent(ctx, officer, student.ID, Meta{})
	require.NoError(t, err)

	patch := &types.RoleDetails{Student: &types.StudentDetails{
		CollegeID:       1,
		Course:          "B.Tech",
		Branch:          "ECE",
		GraduationYear:  2026,
		CGPA:            9.0,
		IsVerified:      false, // attempt to clear
		PlacementStatus: types.PlacementPlaced,
	}}
	updated, err := f.users.UpdateProfile(ctx, student.ID, ProfileUpdate{Name: "New Name", Details: patch}, Meta{})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "ECE", updated.Details.Student.Branch)
	assert.True(t, updated.Details.Student.IsVerified)
	assert.Equal(t, types.PlacementNotPlaced, updated.Details.Student.PlacementStatus)
}

func TestVerifyStudentCollegeScope(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	officer := f.officer(1, 1)
	sameCollege := f.student(2, 1, false)
	otherCollege := f.student(3, 2, false)

	verified, err := f.users.VerifyStudent(ctx, officer, sameCollege.ID, Meta{})
	require.NoError(t, err)
	assert.True(t, verified.Details.Student.IsVerified)
	assert.Len(t, f.notificationRepo.forUser(sameCollege.ID), 1)

	_, err = f.users.VerifyStudent(ctx, officer, otherCollege.ID, Meta{})
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)

	// Verifying an already-verified student is a no-op, not an error.
	_, err = f.users.VerifyStudent(ctx, officer, sameCollege.ID, Meta{})
	require.NoError(t, err)
	assert.Len(t, f.notificationRepo.forUser(sameCollege.ID), 1)
}

func TestDeactivateStudent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	officer := f.officer(1, 1)
	student := f.student(2, 1, true)
	recruiter := f.recruiter(3)

	require.NoError(t, f.users.DeactivateStudent(ctx, officer, student.ID, Meta{}))

	stored, err := f.userRepo.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	err = f.users.DeactivateStudent(ctx, officer, recruiter.ID, Meta{})
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
}

func TestListStudentsRequiresOfficer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.student(1, 1, true)
	f.student(2, 2, true)
	officer := f.officer(3, 1)

	students, total, err := f.users.ListStudents(ctx, officer, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, students, 1)
	assert.Equal(t, 1, students[0].Details.Student.CollegeID)

	_, _, err = f.users.ListStudents(ctx, f.recruiter(4), 0, 10)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
}

func TestSetMarksheetStudentsOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	student := f.student(1, 1, false)
	recruiter := f.recruiter(2)

	updated, err := f.users.SetMarksheet(ctx, student.ID, "marksheets/1/m.png")
	require.NoError(t, err)
	assert.Equal(t, "marksheets/1/m.png", updated.Details.Student.MarksheetKey)

	_, err = f.users.SetMarksheet(ctx, recruiter.ID, "marksheets/2/m.png")
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
}
