package services

import (
	"context"
	"errors"

	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/internal/store"
	"github.com/tnp-portal/apiserver/types"
)

// CollegeRepository defines persistence operations for colleges.
type CollegeRepository interface {
	Get(ctx context.Context, id int) (types.College, error)
	List(ctx context.Context) ([]types.College, error)
	Create(ctx context.Context, college types.College) (types.College, error)
}

// CollegeService serves the read-only college directory. Creation is
// reserved for the seed process.
type CollegeService struct {
	repo CollegeRepository
}

func NewCollegeService(repo CollegeRepository) *CollegeService {
	return &CollegeService{repo: repo}
}

func (s *CollegeService) Get(ctx context.Context, id int) (types.College, error) {
	college, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.College{}, apperr.NotFound("college not found")
		}
		return types.College{}, err
	}
	return college, nil
}

func (s *CollegeService) List(ctx context.Context) ([]types.College, error) {
	return s.repo.List(ctx)
}

// Seed inserts a college, skipping duplicates.
func (s *CollegeService) Seed(ctx context.Context, college types.College) (types.College, error) {
	created, err := s.repo.Create(ctx, college)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.College{}, apperr.Conflict("college already exists")
		}
		return types.College{}, err
	}
	return created, nil
}
