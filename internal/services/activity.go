package services

import (
	"context"
	"log"

	"github.com/tnp-portal/apiserver/types"
)

// ActivityRepository defines the append-only audit log sink.
type ActivityRepository interface {
	Append(ctx context.Context, entry types.ActivityLog) error
	ListRecent(ctx context.Context, offset, limit int) ([]types.ActivityLog, int, error)
}

// Meta carries request metadata recorded alongside mutations.
type Meta struct {
	IP        string
	UserAgent string
}

// ActivityService records audit entries for every mutating operation.
// Recording is best-effort: an audit write failure never fails the
// triggering request.
type ActivityService struct {
	repo ActivityRepository
}

func NewActivityService(repo ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// Record appends one audit entry.
func (s *ActivityService) Record(ctx context.Context, actorID int, action, entityKind string, entityID int, meta Meta) {
	err := s.repo.Append(ctx, types.ActivityLog{
		ActorID:    actorID,
		Action:     action,
		EntityKind: entityKind,
		EntityID:   entityID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	if err != nil {
		log.Printf("activity log append failed (actor=%d action=%s): %v", actorID, action, err)
	}
}

// ListRecent returns the newest audit entries.
func (s *ActivityService) ListRecent(ctx context.Context, offset, limit int) ([]types.ActivityLog, int, error) {
	return s.repo.ListRecent(ctx, offset, limit)
}
