package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tnp-portal/apiserver/types"
)

// DashboardService serves the read-only, role-scoped aggregates.
type DashboardService struct {
	users UserRepository
	jobs  JobRepository
	apps  ApplicationRepository
}

func NewDashboardService(users UserRepository, jobs JobRepository, apps ApplicationRepository) *DashboardService {
	return &DashboardService{
		users: users,
		jobs:  jobs,
		apps:  apps,
	}
}

// StudentDashboard summarizes a student's own applications.
type StudentDashboard struct {
	Applications        int                   `json:"applications"`
	InterviewsScheduled int                   `json:"interviews_scheduled"`
	Shortlisted         int                   `json:"shortlisted"`
	Accepted            int                   `json:"accepted"`
	PlacementStatus     types.PlacementStatus `json:"placement_status"`
}

// RecruiterDashboard summarizes a recruiter's postings and their reach.
type RecruiterDashboard struct {
	JobsPosted              int `json:"jobs_posted"`
	JobsActive              int `json:"jobs_active"`
	JobsPending             int `json:"jobs_pending"`
	ApplicationsReceived    int `json:"applications_received"`
	ApplicationsShortlisted int `json:"applications_shortlisted"`
}

// TnPDashboard summarizes a college's placement season.
type TnPDashboard struct {
	TotalStudents    int    `json:"total_students"`
	VerifiedStudents int    `json:"verified_students"`
	PlacedStudents   int    `json:"placed_students"`
	PendingJobs      int    `json:"pending_jobs"`
	ApprovedJobs     int    `json:"approved_jobs"`
	PlacementRate    string `json:"placement_rate"`
}

// PlacementReportRow is one course's slice of the placement report.
type PlacementReportRow struct {
	Course        string `json:"course"`
	TotalStudents int    `json:"total_students"`
	Placed        int    `json:"placed"`
	PlacementRate string `json:"placement_rate"`
}

// ForStudent builds the student dashboard.
func (s *DashboardService) ForStudent(ctx context.Context, student types.User) (StudentDashboard, error) {
	counts, err := s.apps.CountForStudent(ctx, student.ID)
	if err != nil {
		return StudentDashboard{}, err
	}

	status := types.PlacementNotPlaced
	if student.Details.Student != nil && student.Details.Student.PlacementStatus != "" {
		status = student.Details.Student.PlacementStatus
	}

	return StudentDashboard{
		Applications:        counts.Total,
		InterviewsScheduled: counts.Interviews,
		Shortlisted:         counts.Shortlisted,
		Accepted:            counts.Accepted,
		PlacementStatus:     status,
	}, nil
}

// ForRecruiter builds the recruiter dashboard. Application aggregates
// are computed over the set of the recruiter's own job ids.
func (s *DashboardService) ForRecruiter(ctx context.Context, recruiterID int) (RecruiterDashboard, error) {
	jobCounts, err := s.jobs.CountForRecruiter(ctx, recruiterID)
	if err != nil {
		return RecruiterDashboard{}, err
	}

	jobIDs, err := s.jobs.IDsForRecruiter(ctx, recruiterID)
	if err != nil {
		return RecruiterDashboard{}, err
	}
	appCounts, err := s.apps.CountForJobs(ctx, jobIDs)
	if err != nil {
		return RecruiterDashboard{}, err
	}

	return RecruiterDashboard{
		JobsPosted:              jobCounts.Posted,
		JobsActive:              jobCounts.Active,
		JobsPending:             jobCounts.Pending,
		ApplicationsReceived:    appCounts.Received,
		ApplicationsShortlisted: appCounts.Shortlisted,
	}, nil
}

// ForTnP builds the officer's dashboard, scoped to their college for
// student numbers and system-wide for job numbers.
func (s *DashboardService) ForTnP(ctx context.Context, officer types.User) (TnPDashboard, error) {
	collegeID, err := officerCollege(officer)
	if err != nil {
		return TnPDashboard{}, err
	}

	students, err := s.users.CountStudentsByCollege(ctx, collegeID)
	if err != nil {
		return TnPDashboard{}, err
	}
	jobs, err := s.jobs.CountByStatus(ctx)
	if err != nil {
		return TnPDashboard{}, err
	}

	return TnPDashboard{
		TotalStudents:    students.Total,
		VerifiedStudents: students.Verified,
		PlacedStudents:   students.Placed,
		PendingJobs:      jobs.Pending,
		ApprovedJobs:     jobs.Approved,
		PlacementRate:    placementRate(students.Placed, students.Total),
	}, nil
}

// PlacementReport groups the officer's college placement rate by course,
// optionally windowed on account creation time.
func (s *DashboardService) PlacementReport(ctx context.Context, officer types.User, from, to *time.Time) ([]PlacementReportRow, error) {
	collegeID, err := officerCollege(officer)
	if err != nil {
		return nil, err
	}

	groups, err := s.users.PlacementByCourse(ctx, collegeID, from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]PlacementReportRow, 0, len(groups))
	for _, group := range groups {
		rows = append(rows, PlacementReportRow{
			Course:        group.Course,
			TotalStudents: group.Total,
			Placed:        group.Placed,
			PlacementRate: placementRate(group.Placed, group.Total),
		})
	}
	return rows, nil
}

// placementRate formats placed/total as a percentage with two decimals.
// Zero totals report "0" rather than dividing by zero.
func placementRate(placed, total int) string {
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%.2f", float64(placed)/float64(total)*100)
}
