package services

import (
	"context"

	"github.com/brainjam-arena/backend/types"
)

// SubmissionRepository defines persistence operations for submissions.
type SubmissionRepository interface {
	Get(ctx context.Context, id int64) (types.Submission, error)
	Create(ctx context.Context, submission types.Submission) (types.Submission, error)
	ListByUser(ctx context.Context, userID, offset, limit int) ([]types.Submission, error)
}

// SubmissionService exposes read access to the append-only submission
// history. Writes happen only through the grading pipeline.
type SubmissionService struct {
	repo SubmissionRepository
}

func NewSubmissionService(repo SubmissionRepository) *SubmissionService {
	return &SubmissionService{repo: repo}
}

func (s *SubmissionService) Get(ctx context.Context, id int64) (types.Submission, error) {
	return s.repo.Get(ctx, id)
}

func (s *SubmissionService) ListByUser(ctx context.Context, userID, offset, limit int) ([]types.Submission, error) {
	return s.repo.ListByUser(ctx, userID, offset, limit)
}
