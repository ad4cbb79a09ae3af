package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/brainjam-arena/backend/internal/judge"
	"github.com/brainjam-arena/backend/internal/store"
	"github.com/brainjam-arena/backend/types"
	"github.com/google/uuid"
)

// Number of per-case results returned to submitters. Full hidden-suite
// results are withheld to discourage reverse engineering.
const maxSubmitVerdicts = 3

// ProblemGetter loads problem metadata for grading.
type ProblemGetter interface {
	Get(ctx context.Context, id int) (types.Problem, error)
}

// TestCaseLister loads a problem's test cases in grading order.
type TestCaseLister interface {
	ListByProblem(ctx context.Context, problemID int, includeHidden bool) ([]types.TestCase, error)
}

// SubmissionWriter persists graded submissions.
type SubmissionWriter interface {
	Create(ctx context.Context, submission types.Submission) (types.Submission, error)
}

// CompletionAwarder credits first-acceptance points.
type CompletionAwarder interface {
	AwardFirstAcceptance(ctx context.Context, userID, problemID, points int) (bool, error)
}

// VerdictEvaluator grades code against an ordered test case list.
type VerdictEvaluator interface {
	Evaluate(ctx context.Context, code string, languageID int, opts judge.Options, testCases []types.TestCase) []types.TestCaseVerdict
}

// EventPublisher publishes grading events for downstream services.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// GradeRequest is one ephemeral grading attempt. It exists only for
// the duration of the call that created it.
type GradeRequest struct {
	ProblemID int
	Code      string
	Language  string
}

// TestRunResult is the outcome of a test-mode grading run.
type TestRunResult struct {
	Status          string                  `json:"status"`
	Message         string                  `json:"message"`
	TestResults     []types.TestCaseVerdict `json:"testResults"`
	ExecutionTimeMs int64                   `json:"executionTime"`
	MemoryUsedKb    int64                   `json:"memoryUsed"`
}

// SubmitResult is the outcome of a submit-mode grading run.
type SubmitResult struct {
	SubmissionID    string                  `json:"submissionId"`
	Status          types.SubmissionStatus  `json:"status"`
	Score           int                     `json:"score"`
	Message         string                  `json:"message"`
	TestResults     []types.TestCaseVerdict `json:"testResults"`
	TotalTests      int                     `json:"totalTests"`
	PassedTests     int                     `json:"passedTests"`
	ExecutionTimeMs int64                   `json:"executionTime"`
	MemoryUsedKb    int64                   `json:"memoryUsed"`
}

// GradedEvent is the payload published after a submit-mode persist.
type GradedEvent struct {
	SubmissionID string                 `json:"submission_id"`
	UserID       *int                   `json:"user_id"`
	ProblemID    int                    `json:"problem_id"`
	Status       types.SubmissionStatus `json:"status"`
	Score        int                    `json:"score"`
}

// GradingService runs submitted code against a problem's test cases
// and turns verdicts into scores, persisted submissions, and points.
type GradingService struct {
	problems    ProblemGetter
	testCases   TestCaseLister
	submissions SubmissionWriter
	completions CompletionAwarder
	evaluator   VerdictEvaluator
	events      EventPublisher
	gradedTopic string
	logger      *slog.Logger
}

// NewGradingService constructs a GradingService. events may be nil to
// disable publishing.
func NewGradingService(
	problems ProblemGetter,
	testCases TestCaseLister,
	submissions SubmissionWriter,
	completions CompletionAwarder,
	evaluator VerdictEvaluator,
	events EventPublisher,
	gradedTopic string,
	logger *slog.Logger,
) *GradingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GradingService{
		problems:    problems,
		testCases:   testCases,
		submissions: submissions,
		completions: completions,
		evaluator:   evaluator,
		events:      events,
		gradedTopic: gradedTopic,
		logger:      logger,
	}
}

// gradeOutcome is the shared pipeline result. Both grading modes are
// projections of it: test mode reads it directly, submit mode persists
// it first.
type gradeOutcome struct {
	problem         types.Problem
	verdicts        []types.TestCaseVerdict
	passed          int
	total           int
	score           int
	status          types.SubmissionStatus
	executionTimeMs int64
	memoryUsedKb    int64
}

// RunTests grades against the sample test cases only. Nothing is
// persisted and no points are awarded.
func (s *GradingService) RunTests(ctx context.Context, req GradeRequest) (TestRunResult, error) {
	languageID, err := judge.LanguageID(req.Language)
	if err != nil {
		return TestRunResult{}, err
	}

	outcome, err := s.grade(ctx, req, languageID, false)
	if err != nil {
		return TestRunResult{}, err
	}

	result := TestRunResult{
		TestResults:     outcome.verdicts,
		ExecutionTimeMs: outcome.executionTimeMs,
		MemoryUsedKb:    outcome.memoryUsedKb,
	}
	switch outcome.status {
	case types.StatusNoTests:
		result.Status = "no_tests"
		result.Message = "no test cases available for this problem"
	case types.StatusAccepted:
		result.Status = "passed"
		result.Message = fmt.Sprintf("%d/%d test cases passed", outcome.passed, outcome.total)
	default:
		result.Status = "failed"
		result.Message = fmt.Sprintf("%d/%d test cases passed", outcome.passed, outcome.total)
	}
	return result, nil
}

// SubmitSolution grades against the full test case set, persists the
// submission, and awards first-acceptance points. userID is nil for
// anonymous submissions, which are graded and persisted but never
// earn points.
func (s *GradingService) SubmitSolution(ctx context.Context, userID *int, req GradeRequest) (SubmitResult, error) {
	languageID, err := judge.LanguageID(req.Language)
	if err != nil {
		return SubmitResult{}, err
	}

	outcome, err := s.grade(ctx, req, languageID, true)
	if err != nil {
		return SubmitResult{}, err
	}

	submission := types.Submission{
		UserID:          userID,
		ProblemID:       req.ProblemID,
		Code:            req.Code,
		Language:        req.Language,
		Status:          outcome.status,
		Score:           outcome.score,
		ExecutionTimeMs: outcome.executionTimeMs,
		MemoryUsedKb:    outcome.memoryUsedKb,
	}

	// Persistence is best-effort: a storage outage must not withhold
	// the grading result from the caller. A locally generated id marks
	// the record as non-durable.
	submissionID := ""
	created, err := s.submissions.Create(ctx, submission)
	if err != nil {
		submissionID = "local-" + uuid.NewString()
		s.logger.Error("failed to persist submission, returning fallback id",
			"problem_id", req.ProblemID, "fallback_id", submissionID, "error", err)
	} else {
		submissionID = strconv.FormatInt(created.ID, 10)
	}

	if outcome.status == types.StatusAccepted && userID != nil {
		s.awardPoints(ctx, *userID, outcome)
	}

	s.publishGraded(ctx, GradedEvent{
		SubmissionID: submissionID,
		UserID:       userID,
		ProblemID:    req.ProblemID,
		Status:       outcome.status,
		Score:        outcome.score,
	})

	message := fmt.Sprintf("%d/%d test cases passed", outcome.passed, outcome.total)
	if outcome.status == types.StatusNoTests {
		message = "no test cases available for this problem"
	}

	verdicts := outcome.verdicts
	if len(verdicts) > maxSubmitVerdicts {
		verdicts = verdicts[:maxSubmitVerdicts]
	}

	return SubmitResult{
		SubmissionID:    submissionID,
		Status:          outcome.status,
		Score:           outcome.score,
		Message:         message,
		TestResults:     verdicts,
		TotalTests:      outcome.total,
		PassedTests:     outcome.passed,
		ExecutionTimeMs: outcome.executionTimeMs,
		MemoryUsedKb:    outcome.memoryUsedKb,
	}, nil
}

// grade is the shared pipeline: load test cases, evaluate, score.
func (s *GradingService) grade(ctx context.Context, req GradeRequest, languageID int, includeHidden bool) (gradeOutcome, error) {
	problem, err := s.problems.Get(ctx, req.ProblemID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return gradeOutcome{}, err
	}
	// A missing problem has no test cases either way; it surfaces as
	// the no_tests terminal state, not an error.

	testCases, err := s.testCases.ListByProblem(ctx, req.ProblemID, includeHidden)
	if err != nil {
		return gradeOutcome{}, err
	}

	outcome := gradeOutcome{problem: problem, total: len(testCases)}
	if outcome.total == 0 {
		outcome.status = types.StatusNoTests
		outcome.verdicts = []types.TestCaseVerdict{}
		return outcome, nil
	}

	opts := judge.Options{MemoryLimitKb: problem.MemoryLimitKb}
	if problem.TimeLimitMs > 0 {
		opts.CPUTimeLimitSec = float64(problem.TimeLimitMs) / 1000
	}

	outcome.verdicts = s.evaluator.Evaluate(ctx, req.Code, languageID, opts, testCases)
	for _, v := range outcome.verdicts {
		if v.Status == types.VerdictPassed {
			outcome.passed++
		}
		outcome.executionTimeMs += v.ExecutionTimeMs
		if v.MemoryUsedKb > outcome.memoryUsedKb {
			outcome.memoryUsedKb = v.MemoryUsedKb
		}
	}

	outcome.score = int(math.Round(100 * float64(outcome.passed) / float64(outcome.total)))
	if outcome.passed == outcome.total {
		outcome.status = types.StatusAccepted
	} else {
		outcome.status = types.StatusWrongAnswer
	}
	return outcome, nil
}

func (s *GradingService) awardPoints(ctx context.Context, userID int, outcome gradeOutcome) {
	points := int(math.Round(float64(outcome.problem.Difficulty.BasePoints()) * float64(outcome.score) / 100))
	awarded, err := s.completions.AwardFirstAcceptance(ctx, userID, outcome.problem.ID, points)
	if err != nil {
		s.logger.Error("failed to award points",
			"user_id", userID, "problem_id", outcome.problem.ID, "error", err)
		return
	}
	if awarded {
		s.logger.Info("awarded first-acceptance points",
			"user_id", userID, "problem_id", outcome.problem.ID, "points", points)
	}
}

func (s *GradingService) publishGraded(ctx context.Context, event GradedEvent) {
	if s.events == nil || s.gradedTopic == "" {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := s.events.Publish(ctx, s.gradedTopic, data, map[string]string{
		"status": string(event.Status),
	}); err != nil {
		s.logger.Warn("failed to publish graded event",
			"submission_id", event.SubmissionID, "error", err)
	}
}
