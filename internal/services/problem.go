package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brainjam-arena/backend/internal/storage"
	"github.com/brainjam-arena/backend/types"
)

// ProblemRepository defines persistence operations for problems.
type ProblemRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Problem, int, error)
	Get(ctx context.Context, id int) (types.Problem, error)
	Create(ctx context.Context, problem types.Problem) (types.Problem, error)
	Update(ctx context.Context, problem types.Problem) (types.Problem, error)
	Delete(ctx context.Context, id int) error
}

// TestCaseReplacer swaps a problem's full test case set.
type TestCaseReplacer interface {
	Replace(ctx context.Context, problemID int, testCases []types.TestCase) error
}

// ProblemService encapsulates problem authoring use-cases.
type ProblemService struct {
	repo      ProblemRepository
	testCases TestCaseReplacer
	archives  *storage.ArchiveStore
	logger    *slog.Logger
}

// NewProblemService constructs a ProblemService. archives may be nil
// to skip raw-archive retention.
func NewProblemService(repo ProblemRepository, testCases TestCaseReplacer, archives *storage.ArchiveStore, logger *slog.Logger) *ProblemService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProblemService{repo: repo, testCases: testCases, archives: archives, logger: logger}
}

func (s *ProblemService) List(ctx context.Context, offset, limit int) ([]types.Problem, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *ProblemService) Get(ctx context.Context, id int) (types.Problem, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProblemService) Create(ctx context.Context, problem types.Problem) (types.Problem, error) {
	if problem.Difficulty == "" {
		problem.Difficulty = types.DifficultyEasy
	}
	return s.repo.Create(ctx, problem)
}

func (s *ProblemService) Update(ctx context.Context, problem types.Problem) (types.Problem, error) {
	return s.repo.Update(ctx, problem)
}

func (s *ProblemService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// ImportTestCaseArchive parses an uploaded test case archive, replaces
// the problem's test cases with its contents, and keeps the raw
// archive in object storage for provenance. Archive retention is
// best-effort; the database rows are the source of truth for grading.
func (s *ProblemService) ImportTestCaseArchive(ctx context.Context, problemID int, filename string, data []byte) (int, error) {
	if _, err := s.repo.Get(ctx, problemID); err != nil {
		return 0, err
	}

	testCases, err := ParseTestCaseArchive(filename, data)
	if err != nil {
		return 0, err
	}

	if err := s.testCases.Replace(ctx, problemID, testCases); err != nil {
		return 0, err
	}

	if s.archives != nil {
		key := fmt.Sprintf("problems/%d/%d-%s", problemID, time.Now().Unix(), filename)
		if err := s.archives.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/gzip"); err != nil {
			s.logger.Warn("failed to archive test case bundle",
				"problem_id", problemID, "key", key, "error", err)
		}
	}

	return len(testCases), nil
}
