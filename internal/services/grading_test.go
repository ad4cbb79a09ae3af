package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/brainjam-arena/backend/internal/judge"
	"github.com/brainjam-arena/backend/internal/store"
	"github.com/brainjam-arena/backend/types"
)

type stubProblems struct {
	problem types.Problem
	err     error
}

func (s *stubProblems) Get(ctx context.Context, id int) (types.Problem, error) {
	return s.problem, s.err
}

type stubTestCases struct {
	cases         []types.TestCase
	err           error
	calls         int
	includeHidden bool
}

func (s *stubTestCases) ListByProblem(ctx context.Context, problemID int, includeHidden bool) ([]types.TestCase, error) {
	s.calls++
	s.includeHidden = includeHidden
	return s.cases, s.err
}

type stubSubmissions struct {
	created []types.Submission
	nextID  int64
	err     error
}

func (s *stubSubmissions) Create(ctx context.Context, submission types.Submission) (types.Submission, error) {
	if s.err != nil {
		return types.Submission{}, s.err
	}
	s.nextID++
	submission.ID = s.nextID
	s.created = append(s.created, submission)
	return submission, nil
}

type stubCompletions struct {
	calls   int
	userID  int
	points  int
	awarded bool
	err     error
}

func (s *stubCompletions) AwardFirstAcceptance(ctx context.Context, userID, problemID, points int) (bool, error) {
	s.calls++
	s.userID = userID
	s.points = points
	return s.awarded, s.err
}

// stubEvaluator passes every case whose expected output matches the
// scripted output for its input, and errors on scripted inputs.
type stubEvaluator struct {
	outputs map[string]string
	errors  map[string]string
}

func (s *stubEvaluator) Evaluate(ctx context.Context, code string, languageID int, opts judge.Options, testCases []types.TestCase) []types.TestCaseVerdict {
	verdicts := make([]types.TestCaseVerdict, 0, len(testCases))
	for _, tc := range testCases {
		v := types.TestCaseVerdict{
			TestCaseID:     tc.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
		if msg, ok := s.errors[tc.Input]; ok {
			v.Status = types.VerdictError
			v.Error = msg
		} else if out := s.outputs[tc.Input]; strings.TrimSpace(out) == strings.TrimSpace(tc.ExpectedOutput) {
			v.Status = types.VerdictPassed
			v.ActualOutput = out
		} else {
			v.Status = types.VerdictFailed
			v.ActualOutput = s.outputs[tc.Input]
		}
		verdicts = append(verdicts, v)
	}
	return verdicts
}

type recordedEvent struct {
	channel string
	data    []byte
}

type stubEvents struct {
	published []recordedEvent
	err       error
}

func (s *stubEvents) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.published = append(s.published, recordedEvent{channel: channel, data: data})
	return "1", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func sumProblem() types.Problem {
	return types.Problem{
		ID:            7,
		Title:         "Sum of Two Numbers",
		Difficulty:    types.DifficultyMedium,
		TimeLimitMs:   2000,
		MemoryLimitKb: 128000,
	}
}

func sumCases() []types.TestCase {
	return []types.TestCase{
		{ID: 1, ProblemID: 7, Input: "1 2", ExpectedOutput: "3", IsSample: true, CaseOrder: 0},
		{ID: 2, ProblemID: 7, Input: "10 20", ExpectedOutput: "30", IsSample: true, CaseOrder: 1},
	}
}

func newTestService(problems ProblemGetter, testCases TestCaseLister, submissions SubmissionWriter, completions CompletionAwarder, evaluator VerdictEvaluator, events EventPublisher) *GradingService {
	return NewGradingService(problems, testCases, submissions, completions, evaluator, events, "submission.graded", discardLogger())
}

func TestRunTestsAllPassed(t *testing.T) {
	testCases := &stubTestCases{cases: sumCases()}
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		testCases,
		&stubSubmissions{},
		&stubCompletions{},
		&stubEvaluator{outputs: map[string]string{"1 2": "3", "10 20": "30"}},
		nil,
	)

	result, err := svc.RunTests(context.Background(), GradeRequest{ProblemID: 7, Code: "...", Language: "python"})
	if err != nil {
		t.Fatalf("RunTests: %v", err)
	}
	if result.Status != "passed" {
		t.Errorf("status = %q, want passed", result.Status)
	}
	if result.Message != "2/2 test cases passed" {
		t.Errorf("message = %q", result.Message)
	}
	if len(result.TestResults) != 2 {
		t.Fatalf("got %d verdicts, want 2", len(result.TestResults))
	}
	if testCases.includeHidden {
		t.Error("test mode must fetch sample cases only")
	}
}

func TestRunTestsWrongOutput(t *testing.T) {
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{cases: sumCases()},
		&stubSubmissions{},
		&stubCompletions{},
		&stubEvaluator{outputs: map[string]string{"1 2": "0", "10 20": "0"}},
		nil,
	)

	result, err := svc.RunTests(context.Background(), GradeRequest{ProblemID: 7, Code: "print(0)", Language: "python"})
	if err != nil {
		t.Fatalf("RunTests: %v", err)
	}
	if result.Status != "failed" {
		t.Errorf("status = %q, want failed", result.Status)
	}
	if result.Message != "0/2 test cases passed" {
		t.Errorf("message = %q", result.Message)
	}
	for _, v := range result.TestResults {
		if v.Status != types.VerdictFailed {
			t.Errorf("verdict for %q = %s, want failed", v.Input, v.Status)
		}
	}
}

func TestRunTestsNoTestCases(t *testing.T) {
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{cases: nil},
		&stubSubmissions{},
		&stubCompletions{},
		&stubEvaluator{},
		nil,
	)

	result, err := svc.RunTests(context.Background(), GradeRequest{ProblemID: 7, Code: "...", Language: "go"})
	if err != nil {
		t.Fatalf("RunTests: %v", err)
	}
	if result.Status != "no_tests" {
		t.Errorf("status = %q, want no_tests", result.Status)
	}
	if result.Message != "no test cases available for this problem" {
		t.Errorf("message = %q", result.Message)
	}
	if result.TestResults == nil || len(result.TestResults) != 0 {
		t.Errorf("want empty verdict list, got %v", result.TestResults)
	}
}

func TestRunTestsUnsupportedLanguage(t *testing.T) {
	testCases := &stubTestCases{cases: sumCases()}
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		testCases,
		&stubSubmissions{},
		&stubCompletions{},
		&stubEvaluator{},
		nil,
	)

	_, err := svc.RunTests(context.Background(), GradeRequest{ProblemID: 7, Code: "...", Language: "brainfuck"})
	if !errors.Is(err, judge.ErrUnsupportedLanguage) {
		t.Fatalf("err = %v, want ErrUnsupportedLanguage", err)
	}
	if testCases.calls != 0 {
		t.Error("language must be validated before fetching test cases")
	}
}

func TestRunTestsQueryErrorIsNotNoTests(t *testing.T) {
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{err: errors.New("connection refused")},
		&stubSubmissions{},
		&stubCompletions{},
		&stubEvaluator{},
		nil,
	)

	_, err := svc.RunTests(context.Background(), GradeRequest{ProblemID: 7, Code: "...", Language: "go"})
	if err == nil {
		t.Fatal("want error when test case query fails")
	}
}

func TestSubmitSolutionAcceptedAwardsPoints(t *testing.T) {
	submissions := &stubSubmissions{}
	completions := &stubCompletions{awarded: true}
	events := &stubEvents{}
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{cases: sumCases()},
		submissions,
		completions,
		&stubEvaluator{outputs: map[string]string{"1 2": "3", "10 20": "30"}},
		events,
	)

	userID := 42
	result, err := svc.SubmitSolution(context.Background(), &userID, GradeRequest{ProblemID: 7, Code: "...", Language: "python"})
	if err != nil {
		t.Fatalf("SubmitSolution: %v", err)
	}
	if result.Status != types.StatusAccepted {
		t.Errorf("status = %s, want accepted", result.Status)
	}
	if result.Score != 100 {
		t.Errorf("score = %d, want 100", result.Score)
	}
	if result.SubmissionID != "1" {
		t.Errorf("submission id = %q, want 1", result.SubmissionID)
	}
	if len(submissions.created) != 1 {
		t.Fatalf("got %d persisted submissions, want 1", len(submissions.created))
	}
	persisted := submissions.created[0]
	if persisted.Status != types.StatusAccepted || persisted.Score != 100 {
		t.Errorf("persisted status/score = %s/%d", persisted.Status, persisted.Score)
	}
	if persisted.UserID == nil || *persisted.UserID != 42 {
		t.Errorf("persisted user id = %v", persisted.UserID)
	}
	if completions.calls != 1 {
		t.Fatalf("AwardFirstAcceptance calls = %d, want 1", completions.calls)
	}
	// Medium problem at full score is worth its full base points.
	if completions.points != 20 {
		t.Errorf("points = %d, want 20", completions.points)
	}
	if len(events.published) != 1 {
		t.Errorf("published events = %d, want 1", len(events.published))
	}
}

func TestSubmitSolutionPartialScore(t *testing.T) {
	cases := append(sumCases(), types.TestCase{ID: 3, ProblemID: 7, Input: "5 5", ExpectedOutput: "10", CaseOrder: 2})
	completions := &stubCompletions{}
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{cases: cases},
		&stubSubmissions{},
		completions,
		&stubEvaluator{
			outputs: map[string]string{"1 2": "3", "10 20": "30"},
			errors:  map[string]string{"5 5": "execution service unavailable"},
		},
		nil,
	)

	result, err := svc.SubmitSolution(context.Background(), nil, GradeRequest{ProblemID: 7, Code: "...", Language: "python"})
	if err != nil {
		t.Fatalf("SubmitSolution: %v", err)
	}
	if result.Status != types.StatusWrongAnswer {
		t.Errorf("status = %s, want wrong_answer", result.Status)
	}
	// round(100 * 2/3)
	if result.Score != 67 {
		t.Errorf("score = %d, want 67", result.Score)
	}
	if result.PassedTests != 2 || result.TotalTests != 3 {
		t.Errorf("passed/total = %d/%d, want 2/3", result.PassedTests, result.TotalTests)
	}
	if completions.calls != 0 {
		t.Error("non-accepted submissions must not award points")
	}
}

func TestSubmitSolutionNoTestsStillPersists(t *testing.T) {
	submissions := &stubSubmissions{}
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{cases: nil},
		submissions,
		&stubCompletions{},
		&stubEvaluator{},
		nil,
	)

	result, err := svc.SubmitSolution(context.Background(), nil, GradeRequest{ProblemID: 7, Code: "...", Language: "go"})
	if err != nil {
		t.Fatalf("SubmitSolution: %v", err)
	}
	if result.Status != types.StatusNoTests {
		t.Errorf("status = %s, want no_tests", result.Status)
	}
	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
	if len(submissions.created) != 1 {
		t.Fatalf("got %d persisted submissions, want 1", len(submissions.created))
	}
	if submissions.created[0].Status != types.StatusNoTests {
		t.Errorf("persisted status = %s", submissions.created[0].Status)
	}
}

func TestSubmitSolutionMissingProblem(t *testing.T) {
	svc := newTestService(
		&stubProblems{err: store.ErrNotFound},
		&stubTestCases{cases: nil},
		&stubSubmissions{},
		&stubCompletions{},
		&stubEvaluator{},
		nil,
	)

	result, err := svc.SubmitSolution(context.Background(), nil, GradeRequest{ProblemID: 999, Code: "...", Language: "go"})
	if err != nil {
		t.Fatalf("SubmitSolution: %v", err)
	}
	if result.Status != types.StatusNoTests {
		t.Errorf("status = %s, want no_tests", result.Status)
	}
}

func TestSubmitSolutionPersistFailureFallbackID(t *testing.T) {
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{cases: sumCases()},
		&stubSubmissions{err: errors.New("disk full")},
		&stubCompletions{},
		&stubEvaluator{outputs: map[string]string{"1 2": "3", "10 20": "30"}},
		nil,
	)

	result, err := svc.SubmitSolution(context.Background(), nil, GradeRequest{ProblemID: 7, Code: "...", Language: "python"})
	if err != nil {
		t.Fatalf("persist failure must not fail the request: %v", err)
	}
	if !strings.HasPrefix(result.SubmissionID, "local-") {
		t.Errorf("submission id = %q, want local- prefix", result.SubmissionID)
	}
	if result.Status != types.StatusAccepted {
		t.Errorf("status = %s, want accepted", result.Status)
	}
}

func TestSubmitSolutionTruncatesVerdicts(t *testing.T) {
	cases := make([]types.TestCase, 0, 5)
	outputs := map[string]string{}
	for i := 0; i < 5; i++ {
		input := strings.Repeat("x", i+1)
		cases = append(cases, types.TestCase{ID: i + 1, ProblemID: 7, Input: input, ExpectedOutput: "ok", CaseOrder: i})
		outputs[input] = "ok"
	}
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{cases: cases},
		&stubSubmissions{},
		&stubCompletions{},
		&stubEvaluator{outputs: outputs},
		nil,
	)

	result, err := svc.SubmitSolution(context.Background(), nil, GradeRequest{ProblemID: 7, Code: "...", Language: "python"})
	if err != nil {
		t.Fatalf("SubmitSolution: %v", err)
	}
	if len(result.TestResults) != maxSubmitVerdicts {
		t.Errorf("got %d verdicts, want %d", len(result.TestResults), maxSubmitVerdicts)
	}
	if result.TotalTests != 5 || result.PassedTests != 5 {
		t.Errorf("passed/total = %d/%d, want 5/5", result.PassedTests, result.TotalTests)
	}
}

func TestSubmitSolutionAnonymousNoPoints(t *testing.T) {
	completions := &stubCompletions{}
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{cases: sumCases()},
		&stubSubmissions{},
		completions,
		&stubEvaluator{outputs: map[string]string{"1 2": "3", "10 20": "30"}},
		nil,
	)

	result, err := svc.SubmitSolution(context.Background(), nil, GradeRequest{ProblemID: 7, Code: "...", Language: "python"})
	if err != nil {
		t.Fatalf("SubmitSolution: %v", err)
	}
	if result.Status != types.StatusAccepted {
		t.Errorf("status = %s, want accepted", result.Status)
	}
	if completions.calls != 0 {
		t.Error("anonymous submissions must not award points")
	}
}

func TestSubmitSolutionPublishFailureIsNonFatal(t *testing.T) {
	svc := newTestService(
		&stubProblems{problem: sumProblem()},
		&stubTestCases{cases: sumCases()},
		&stubSubmissions{},
		&stubCompletions{},
		&stubEvaluator{outputs: map[string]string{"1 2": "3", "10 20": "30"}},
		&stubEvents{err: errors.New("broker down")},
	)

	if _, err := svc.SubmitSolution(context.Background(), nil, GradeRequest{ProblemID: 7, Code: "...", Language: "python"}); err != nil {
		t.Fatalf("publish failure must not fail the request: %v", err)
	}
}
