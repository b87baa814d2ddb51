package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/internal/mq"
	"github.com/tnp-portal/apiserver/internal/store"
	"github.com/tnp-portal/apiserver/types"
)

const (
	notificationsChannel   = "notifications"
	defaultNotificationTTL = 30 * 24 * time.Hour
)

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n types.Notification) (types.Notification, error)
	ListByUser(ctx context.Context, userID int, now time.Time, offset, limit int) ([]types.Notification, int, error)
	MarkRead(ctx context.Context, id, userID int) error
	MarkAllRead(ctx context.Context, userID int) error
	CountUnread(ctx context.Context, userID int, now time.Time) (int, error)
}

// NotificationService creates and serves per-user notifications.
//
// Notify is best-effort: lifecycle transitions must not fail because a
// notification could not be written or published, so failures are logged
// and dropped.
type NotificationService struct {
	repo   NotificationRepository
	broker *mq.MQ
	ttl    time.Duration
}

// NewNotificationService constructs the service. broker may be nil, in
// which case no events are published.
func NewNotificationService(repo NotificationRepository, broker *mq.MQ) *NotificationService {
	return &NotificationService{
		repo:   repo,
		broker: broker,
		ttl:    defaultNotificationTTL,
	}
}

// Notify records a notification for the recipient and publishes the
// event to the broker. Never returns an error.
func (s *NotificationService) Notify(ctx context.Context, n types.Notification) {
	if n.Priority == "" {
		n.Priority = types.PriorityNormal
	}
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = time.Now().Add(s.ttl)
	}

	created, err := s.repo.Create(ctx, n)
	if err != nil {
		log.Printf("notification insert failed for user %d: %v", n.UserID, err)
		return
	}

	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(created)
	if err != nil {
		return
	}
	attrs := map[string]string{
		"event_id": uuid.NewString(),
		"category": string(created.Category),
	}
	if _, err := s.broker.Publish(ctx, notificationsChannel, payload, attrs); err != nil {
		log.Printf("notification publish failed for user %d: %v", created.UserID, err)
	}
}

// NotifyJobApproved tells the owning recruiter their posting went live.
func (s *NotificationService) NotifyJobApproved(ctx context.Context, job types.Job) {
	s.Notify(ctx, types.Notification{
		UserID:   job.RecruiterID,
		Title:    "Job approved",
		Message:  fmt.Sprintf("Your job posting %q has been approved and is now visible to students.", job.Title),
		Category: types.NotificationJob,
		Priority: types.PriorityHigh,
	})
}

// NotifyJobRejected tells the owning recruiter their posting was rejected.
func (s *NotificationService) NotifyJobRejected(ctx context.Context, job types.Job) {
	s.Notify(ctx, types.Notification{
		UserID:   job.RecruiterID,
		Title:    "Job rejected",
		Message:  fmt.Sprintf("Your job posting %q was rejected: %s", job.Title, job.RejectionReason),
		Category: types.NotificationJob,
		Priority: types.PriorityHigh,
	})
}

// NotifyApplicationReceived tells the recruiter a student applied.
func (s *NotificationService) NotifyApplicationReceived(ctx context.Context, job types.Job, student types.User) {
	s.Notify(ctx, types.Notification{
		UserID:   job.RecruiterID,
		Title:    "New application",
		Message:  fmt.Sprintf("%s applied to %q.", student.Name, job.Title),
		Category: types.NotificationApplication,
	})
}

// NotifyApplicationStatus tells the student their application moved.
func (s *NotificationService) NotifyApplicationStatus(ctx context.Context, app types.Application, job types.Job) {
	s.Notify(ctx, types.Notification{
		UserID:   app.StudentID,
		Title:    "Application update",
		Message:  fmt.Sprintf("Your application for %q is now %q.", job.Title, app.Status),
		Category: types.NotificationApplication,
		Priority: types.PriorityHigh,
	})
}

// NotifyStudentVerified tells the student their profile was verified.
func (s *NotificationService) NotifyStudentVerified(ctx context.Context, studentID int) {
	s.Notify(ctx, types.Notification{
		UserID:   studentID,
		Title:    "Profile verified",
		Message:  "Your profile has been verified. You can now apply to jobs.",
		Category: types.NotificationAccount,
	})
}

// ListForUser returns the recipient's unexpired notifications.
func (s *NotificationService) ListForUser(ctx context.Context, userID, offset, limit int) ([]types.Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, time.Now(), offset, limit)
}

// MarkRead marks one of the recipient's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("notification not found")
		}
		return err
	}
	return nil
}

// MarkAllRead marks all of the recipient's notifications read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// UnreadCount returns the recipient's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int) (int, error) {
	return s.repo.CountUnread(ctx, userID, time.Now())
}
