package store

import (
	"context"
	"database/sql"

	"github.com/brainjam-arena/backend/types"
)

// TestCaseRepository handles persistence for test cases.
type TestCaseRepository struct {
	db *sql.DB
}

func NewTestCaseRepository(db *sql.DB) *TestCaseRepository {
	return &TestCaseRepository{db: db}
}

// ListByProblem returns a problem's test cases in grading order:
// samples first, then hidden cases, each ordered by case_order. When
// includeHidden is false only sample cases are returned. A problem with
// no test cases yields an empty slice and a nil error; query failures
// propagate so callers can tell a data outage from a bare problem.
func (r *TestCaseRepository) ListByProblem(ctx context.Context, problemID int, includeHidden bool) ([]types.TestCase, error) {
	const query = `
		SELECT id, problem_id, input_data, expected_output, is_sample, case_order
		FROM test_cases
		WHERE problem_id = $1 AND (is_sample OR $2)
		ORDER BY is_sample DESC, case_order ASC`
	rows, err := r.db.QueryContext(ctx, query, problemID, includeHidden)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	testCases := make([]types.TestCase, 0)
	for rows.Next() {
		var tc types.TestCase
		if err := rows.Scan(
			&tc.ID,
			&tc.ProblemID,
			&tc.Input,
			&tc.ExpectedOutput,
			&tc.IsSample,
			&tc.CaseOrder,
		); err != nil {
			return nil, err
		}
		testCases = append(testCases, tc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return testCases, nil
}

// Replace swaps a problem's test cases for the given set inside one
// transaction, preserving the provided order.
func (r *TestCaseRepository) Replace(ctx context.Context, problemID int, testCases []types.TestCase) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const deleteQuery = `DELETE FROM test_cases WHERE problem_id = $1`
	if _, err := tx.ExecContext(ctx, deleteQuery, problemID); err != nil {
		return err
	}

	const insertQuery = `
		INSERT INTO test_cases (problem_id, input_data, expected_output, is_sample, case_order)
		VALUES ($1, $2, $3, $4, $5)`
	for _, tc := range testCases {
		if _, err := tx.ExecContext(
			ctx,
			insertQuery,
			problemID,
			tc.Input,
			tc.ExpectedOutput,
			tc.IsSample,
			tc.CaseOrder,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
