package judge

import (
	"context"
	"strings"

	"github.com/brainjam-arena/backend/types"
)

// Executor runs one piece of source code to completion. Satisfied by
// *Client; tests substitute stubs.
type Executor interface {
	ExecuteAndWait(ctx context.Context, sourceCode string, languageID int, stdin string, opts Options) (Result, error)
}

// Evaluator grades code against an ordered list of test cases.
type Evaluator struct {
	executor Executor
}

func NewEvaluator(executor Executor) *Evaluator {
	return &Evaluator{executor: executor}
}

// Evaluate runs the code against every test case in order and returns
// one verdict per case, positionally aligned with the input list.
// Cases run sequentially: the execution backend is a rate-limited
// shared resource and concurrent runs would skew timing data. A
// failing execution yields an error verdict for that case only;
// evaluation always continues with the remaining cases.
func (e *Evaluator) Evaluate(ctx context.Context, code string, languageID int, opts Options, testCases []types.TestCase) []types.TestCaseVerdict {
	verdicts := make([]types.TestCaseVerdict, 0, len(testCases))
	for _, tc := range testCases {
		verdicts = append(verdicts, e.evaluateCase(ctx, code, languageID, opts, tc))
	}
	return verdicts
}

func (e *Evaluator) evaluateCase(ctx context.Context, code string, languageID int, opts Options, tc types.TestCase) types.TestCaseVerdict {
	verdict := types.TestCaseVerdict{
		TestCaseID:     tc.ID,
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
	}

	result, err := e.executor.ExecuteAndWait(ctx, code, languageID, tc.Input, opts)
	if err != nil {
		verdict.Status = types.VerdictError
		verdict.Error = err.Error()
		return verdict
	}

	verdict.ActualOutput = result.Output
	verdict.ExecutionTimeMs = result.ExecutionTimeMs
	verdict.MemoryUsedKb = result.MemoryUsedKb

	actual := strings.TrimSpace(result.Output)
	expected := strings.TrimSpace(tc.ExpectedOutput)
	// Status ids above 3 are wrong-answer and fault statuses. Stderr
	// from a clean run (interpreter warnings, debug prints) does not
	// disqualify a matching output; stderr from a faulted run does.
	faulted := result.StatusID > terminalStatusID
	if actual == expected && (result.Stderr == "" || !faulted) {
		verdict.Status = types.VerdictPassed
		return verdict
	}

	verdict.Status = types.VerdictFailed
	if result.Stderr != "" {
		verdict.Error = result.Stderr
	}
	return verdict
}
