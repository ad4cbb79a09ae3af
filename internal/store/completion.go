package store

import (
	"context"
	"database/sql"
)

// CompletionRepository records first acceptances and maintains the
// user points ledger.
type CompletionRepository struct {
	db *sql.DB
}

func NewCompletionRepository(db *sql.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// AwardFirstAcceptance credits points to a user for their first
// accepted submission of a problem. The completion insert and the
// ledger update run in one transaction; the (user_id, problem_id)
// primary key guarantees at most one award even when two accepted
// submissions are graded concurrently. Returns true when points were
// awarded, false when the problem was already completed.
func (r *CompletionRepository) AwardFirstAcceptance(ctx context.Context, userID, problemID, points int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	const insertQuery = `
		INSERT INTO problem_completions (user_id, problem_id, points_awarded)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, problem_id) DO NOTHING`
	result, err := tx.ExecContext(ctx, insertQuery, userID, problemID, points)
	if err != nil {
		return false, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		return false, nil
	}

	const pointsQuery = `UPDATE users SET total_points = total_points + $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, pointsQuery, points, userID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
