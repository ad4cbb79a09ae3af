package types

import "time"

// SubmissionStatus is the aggregate outcome of grading a submission
// against its full test case set.
type SubmissionStatus string

const (
	// StatusAccepted means every test case passed.
	StatusAccepted SubmissionStatus = "accepted"

	// StatusWrongAnswer means at least one test case did not pass.
	// Per-case execution errors count against acceptance but never
	// abort grading of the remaining cases.
	StatusWrongAnswer SubmissionStatus = "wrong_answer"

	// StatusNoTests means the problem had no test cases to run.
	// This is a legitimate terminal outcome, not an error.
	StatusNoTests SubmissionStatus = "no_tests"
)

// VerdictStatus is the outcome of running code against one test case.
type VerdictStatus string

const (
	VerdictPassed VerdictStatus = "passed"
	VerdictFailed VerdictStatus = "failed"
	VerdictError  VerdictStatus = "error"
)

// Submission represents a persisted record of one full-suite grading
// attempt. Submissions are append-only: a record is created once per
// submit call and never mutated.
type Submission struct {
	// ID is the unique identifier of the submission.
	ID int64 `json:"id" db:"id"`

	// UserID identifies the user who made the submission. Nil for
	// anonymous submissions.
	UserID *int `json:"user_id" db:"user_id"`

	// ProblemID identifies the problem this submission is for.
	ProblemID int `json:"problem_id" db:"problem_id"`

	// Code is the source code submitted by the user.
	Code string `json:"code" db:"code"`

	// Language is the application-level name of the programming
	// language used (e.g. "python", "cpp").
	Language string `json:"language" db:"language"`

	// Status is the aggregate grading outcome.
	Status SubmissionStatus `json:"status" db:"status"`

	// Score is the percentage of test cases passed, 0-100.
	Score int `json:"score" db:"score"`

	// ExecutionTimeMs is the total execution time summed across all
	// test cases, expressed in milliseconds.
	ExecutionTimeMs int64 `json:"execution_time_ms" db:"execution_time_ms"`

	// MemoryUsedKb is the peak memory usage across all test cases,
	// expressed in kilobytes.
	MemoryUsedKb int64 `json:"memory_used_kb" db:"memory_used_kb"`

	// SubmittedAt is the timestamp when the submission was graded.
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
}

// TestCaseVerdict is the outcome of running a submission against one
// test case. Verdicts are ordered to match the test case order and are
// never persisted individually; only aggregate fields survive into the
// Submission record.
type TestCaseVerdict struct {
	// TestCaseID identifies the test case that was executed.
	TestCaseID int `json:"testCaseId"`

	// Input is the stdin that was fed to the program.
	Input string `json:"input"`

	// ExpectedOutput is the output a correct solution produces.
	ExpectedOutput string `json:"expectedOutput"`

	// ActualOutput is the output the submitted program produced,
	// empty when execution failed.
	ActualOutput string `json:"actualOutput"`

	// Status is passed, failed, or error. A case passes iff the
	// trimmed actual output equals the trimmed expected output and no
	// execution error occurred.
	Status VerdictStatus `json:"status"`

	// ExecutionTimeMs is the execution time reported by the backend
	// for this case, in milliseconds.
	ExecutionTimeMs int64 `json:"executionTimeMs"`

	// MemoryUsedKb is the memory usage reported by the backend for
	// this case, in kilobytes.
	MemoryUsedKb int64 `json:"memoryUsedKb"`

	// Error carries the execution error message when Status is error,
	// or the stderr of a faulted run that disqualified an otherwise
	// matching case.
	Error string `json:"error,omitempty"`
}
