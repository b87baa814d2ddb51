package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/tnp-portal/apiserver/internal/store"
	"github.com/tnp-portal/apiserver/types"
)

// In-memory repository fakes backing the service tests. The application
// fake mirrors the storage layer's transactional counter maintenance and
// (job, student) uniqueness so lifecycle tests exercise the same
// contracts the real store enforces.

type fakeUserRepo struct {
	users      map[int]types.User
	nextID     int
	counts     store.StudentCounts
	placements []store.CoursePlacement
	updateErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (r *fakeUserRepo) add(user types.User) types.User {
	if user.ID == 0 {
		user.ID = r.nextID
	}
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	return r.add(user), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if r.updateErr != nil {
		return types.User{}, r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) ListStudentsByCollege(_ context.Context, collegeID, offset, limit int) ([]types.User, int, error) {
	var students []types.User
	for _, user := range r.users {
		if user.Role == types.RoleStudent && user.Details.Student != nil && user.Details.Student.CollegeID == collegeID {
			students = append(students, user)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return page(students, offset, limit), len(students), nil
}

func (r *fakeUserRepo) CountStudentsByCollege(_ context.Context, _ int) (store.StudentCounts, error) {
	return r.counts, nil
}

func (r *fakeUserRepo) PlacementByCourse(_ context.Context, _ int, _, _ *time.Time) ([]store.CoursePlacement, error) {
	return r.placements, nil
}

type fakeJobRepo struct {
	jobs   map[int]types.Job
	nextID int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[int]types.Job{}, nextID: 1}
}

func (r *fakeJobRepo) add(job types.Job) types.Job {
	if job.ID == 0 {
		job.ID = r.nextID
	}
	if job.ID >= r.nextID {
		r.nextID = job.ID + 1
	}
	r.jobs[job.ID] = job
	return job
}

func (r *fakeJobRepo) Get(_ context.Context, id int) (types.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return types.Job{}, store.ErrNotFound
	}
	return job, nil
}

func (r *fakeJobRepo) Create(_ context.Context, job types.Job) (types.Job, error) {
	return r.add(job), nil
}

func (r *fakeJobRepo) Update(_ context.Context, job types.Job) (types.Job, error) {
	if _, ok := r.jobs[job.ID]; !ok {
		return types.Job{}, store.ErrNotFound
	}
	r.jobs[job.ID] = job
	return job, nil
}

func (r *fakeJobRepo) List(_ context.Context, filter store.JobFilter, offset, limit int) ([]types.Job, int, error) {
	var jobs []types.Job
	for _, job := range r.jobs {
		if filter.RecruiterID != 0 && job.RecruiterID != filter.RecruiterID {
			continue
		}
		if filter.OpenOnly && !job.OpenFor(filter.Now) {
			continue
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return page(jobs, offset, limit), len(jobs), nil
}

func (r *fakeJobRepo) IDsForRecruiter(_ context.Context, recruiterID int) ([]int, error) {
	var ids []int
	for _, job := range r.jobs {
		if job.RecruiterID == recruiterID {
			ids = append(ids, job.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *fakeJobRepo) CountForRecruiter(_ context.Context, recruiterID int) (store.RecruiterJobCounts, error) {
	var counts store.RecruiterJobCounts
	for _, job := range r.jobs {
		if job.RecruiterID != recruiterID {
			continue
		}
		counts.Posted++
		if job.Status == types.JobApproved && job.IsActive {
			counts.Active++
		}
		if job.Status == types.JobPending {
			counts.Pending++
		}
	}
	return counts, nil
}

func (r *fakeJobRepo) CountByStatus(_ context.Context) (store.StatusCounts, error) {
	var counts store.StatusCounts
	for _, job := range r.jobs {
		switch job.Status {
		case types.JobPending:
			counts.Pending++
		case types.JobApproved:
			counts.Approved++
		}
	}
	return counts, nil
}

type fakeApplicationRepo struct {
	apps   map[int]types.Application
	jobs   *fakeJobRepo
	nextID int
}

func newFakeApplicationRepo(jobs *fakeJobRepo) *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: map[int]types.Application{}, jobs: jobs, nextID: 1}
}

func (r *fakeApplicationRepo) Get(_ context.Context, id int) (types.Application, error) {
	app, ok := r.apps[id]
	if !ok {
		return types.Application{}, store.ErrNotFound
	}
	return app, nil
}

func (r *fakeApplicationRepo) Create(_ context.Context, app types.Application) (types.Application, error) {
	for _, existing := range r.apps {
		if existing.JobID == app.JobID && existing.StudentID == app.StudentID {
			return types.Application{}, store.ErrConflict
		}
	}
	app.ID = r.nextID
	r.nextID++
	r.apps[app.ID] = app
	if job, ok := r.jobs.jobs[app.JobID]; ok {
		job.ApplicationCount++
		r.jobs.jobs[job.ID] = job
	}
	return app, nil
}

func (r *fakeApplicationRepo) Update(_ context.Context, app types.Application) (types.Application, error) {
	if _, ok := r.apps[app.ID]; !ok {
		return types.Application{}, store.ErrNotFound
	}
	r.apps[app.ID] = app
	return app, nil
}

func (r *fakeApplicationRepo) Delete(_ context.Context, id int) error {
	app, ok := r.apps[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(r.apps, id)
	if job, ok := r.jobs.jobs[app.JobID]; ok && job.ApplicationCount > 0 {
		job.ApplicationCount--
		r.jobs.jobs[job.ID] = job
	}
	return nil
}

func (r *fakeApplicationRepo) GetByJobAndStudent(_ context.Context, jobID, studentID int) (types.Application, error) {
	for _, app := range r.apps {
		if app.JobID == jobID && app.StudentID == studentID {
			return app, nil
		}
	}
	return types.Application{}, store.ErrNotFound
}

func (r *fakeApplicationRepo) ListByStudent(_ context.Context, studentID, offset, limit int) ([]types.Application, int, error) {
	return r.list(func(app types.Application) bool { return app.StudentID == studentID }, offset, limit)
}

func (r *fakeApplicationRepo) ListByJob(_ context.Context, jobID, offset, limit int) ([]types.Application, int, error) {
	return r.list(func(app types.Application) bool { return app.JobID == jobID }, offset, limit)
}

func (r *fakeApplicationRepo) list(match func(types.Application) bool, offset, limit int) ([]types.Application, int, error) {
	var apps []types.Application
	for _, app := range r.apps {
		if match(app) {
			apps = append(apps, app)
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	return page(apps, offset, limit), len(apps), nil
}

func (r *fakeApplicationRepo) CountByJob(_ context.Context, jobID int) (int, error) {
	count := 0
	for _, app := range r.apps {
		if app.JobID == jobID {
			count++
		}
	}
	return count, nil
}

func (r *fakeApplicationRepo) CountForStudent(_ context.Context, studentID int) (store.StudentApplicationCounts, error) {
	var counts store.StudentApplicationCounts
	for _, app := range r.apps {
		if app.StudentID != studentID {
			continue
		}
		counts.Total++
		switch app.Status {
		case types.ApplicationInterviewScheduled:
			counts.Interviews++
		case types.ApplicationShortlisted:
			counts.Shortlisted++
		case types.ApplicationAccepted:
			counts.Accepted++
		}
	}
	return counts, nil
}

func (r *fakeApplicationRepo) CountForJobs(_ context.Context, jobIDs []int) (store.JobSetCounts, error) {
	ids := map[int]bool{}
	for _, id := range jobIDs {
		ids[id] = true
	}
	var counts store.JobSetCounts
	for _, app := range r.apps {
		if !ids[app.JobID] {
			continue
		}
		counts.Received++
		if app.Status == types.ApplicationShortlisted {
			counts.Shortlisted++
		}
	}
	return counts, nil
}

type fakeNotificationRepo struct {
	created   []types.Notification
	createErr error
	nextID    int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n types.Notification) (types.Notification, error) {
	if r.createErr != nil {
		return types.Notification{}, r.createErr
	}
	n.ID = r.nextID
	r.nextID++
	r.created = append(r.created, n)
	return n, nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID int, now time.Time, offset, limit int) ([]types.Notification, int, error) {
	var items []types.Notification
	for _, n := range r.created {
		if n.UserID == userID && n.ExpiresAt.After(now) {
			items = append(items, n)
		}
	}
	return page(items, offset, limit), len(items), nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID int) error {
	for i, n := range r.created {
		if n.ID == id && n.UserID == userID {
			r.created[i].IsRead = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID int) error {
	for i, n := range r.created {
		if n.UserID == userID {
			r.created[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID int, now time.Time) (int, error) {
	count := 0
	for _, n := range r.created {
		if n.UserID == userID && !n.IsRead && n.ExpiresAt.After(now) {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) forUser(userID int) []types.Notification {
	var items []types.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			items = append(items, n)
		}
	}
	return items
}

type fakeActivityRepo struct {
	entries   []types.ActivityLog
	appendErr error
}

func (r *fakeActivityRepo) Append(_ context.Context, entry types.ActivityLog) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeActivityRepo) ListRecent(_ context.Context, offset, limit int) ([]types.ActivityLog, int, error) {
	reversed := make([]types.ActivityLog, len(r.entries))
	for i, entry := range r.entries {
		reversed[len(r.entries)-1-i] = entry
	}
	return page(reversed, offset, limit), len(reversed), nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// fixture wires the full service graph over the fakes.
type fixture struct {
	userRepo         *fakeUserRepo
	jobRepo          *fakeJobRepo
	appRepo          *fakeApplicationRepo
	notificationRepo *fakeNotificationRepo
	activityRepo     *fakeActivityRepo

	users         *UserService
	jobs          *JobService
	apps          *ApplicationService
	notifications *NotificationService
	dashboards    *DashboardService
}

func newFixture() *fixture {
	userRepo := newFakeUserRepo()
	jobRepo := newFakeJobRepo()
	appRepo := newFakeApplicationRepo(jobRepo)
	notificationRepo := newFakeNotificationRepo()
	activityRepo := &fakeActivityRepo{}

	notifications := NewNotificationService(notificationRepo, nil)
	activity := NewActivityService(activityRepo)
	users := NewUserService(userRepo, notifications, activity)
	jobs := NewJobService(jobRepo, appRepo, notifications, activity)
	apps := NewApplicationService(appRepo, jobRepo, users, notifications, activity)
	dashboards := NewDashboardService(userRepo, jobRepo, appRepo)

	return &fixture{
		userRepo:         userRepo,
		jobRepo:          jobRepo,
		appRepo:          appRepo,
		notificationRepo: notificationRepo,
		activityRepo:     activityRepo,
		users:            users,
		jobs:             jobs,
		apps:             apps,
		notifications:    notifications,
		dashboards:       dashboards,
	}
}

func (f *fixture) student(id, collegeID int, verified bool) types.User {
	return f.userRepo.add(types.User{
		ID:       id,
		Name:     "Student",
		Email:    "student" + string(rune('0'+id)) + "@example.com",
		Role:     types.RoleStudent,
		IsActive: true,
		Details: types.RoleDetails{Student: &types.StudentDetails{
			CollegeID:       collegeID,
			Course:          "B.Tech",
			Branch:          "CSE",
			GraduationYear:  2026,
			CGPA:            8.5,
			IsVerified:      verified,
			PlacementStatus: types.PlacementNotPlaced,
		}},
	})
}

func (f *fixture) recruiter(id int) types.User {
	return f.userRepo.add(types.User{
		ID:       id,
		Name:     "Recruiter",
		Email:    "recruiter" + string(rune('0'+id)) + "@example.com",
		Role:     types.RoleRecruiter,
		IsActive: true,
		Details:  types.RoleDetails{Recruiter: &types.RecruiterDetails{CompanyName: "Acme"}},
	})
}

func (f *fixture) officer(id, collegeID int) types.User {
	return f.userRepo.add(types.User{
		ID:       id,
		Name:     "Officer",
		Email:    "officer" + string(rune('0'+id)) + "@example.com",
		Role:     types.RoleTnP,
		IsActive: true,
		Details:  types.RoleDetails{TnP: &types.TnPDetails{CollegeID: collegeID, Designation: "Coordinator"}},
	})
}

func (f *fixture) approvedJob(id, recruiterID int, deadline time.Time) types.Job {
	return f.jobRepo.add(types.Job{
		ID:          id,
		RecruiterID: recruiterID,
		Title:       "Backend Engineer",
		Description: "Build services",
		Company:     "Acme",
		Deadline:    deadline,
		Status:      types.JobApproved,
		IsActive:    true,
	})
}

var errBoom = errors.New("boom")
