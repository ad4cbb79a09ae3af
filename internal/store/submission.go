package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/brainjam-arena/backend/types"
)

// SubmissionRepository handles persistence for submissions.
// Submissions are append-only: records are inserted once and never updated.
type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Get(ctx context.Context, id int64) (types.Submission, error) {
	const query = `
		SELECT id, user_id, problem_id, code, language, status, score,
		       execution_time_ms, memory_used_kb, submitted_at
		FROM submissions
		WHERE id = $1`
	var submission types.Submission
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&submission.ID,
		&submission.UserID,
		&submission.ProblemID,
		&submission.Code,
		&submission.Language,
		&submission.Status,
		&submission.Score,
		&submission.ExecutionTimeMs,
		&submission.MemoryUsedKb,
		&submission.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Submission{}, ErrNotFound
		}
		return types.Submission{}, err
	}
	return submission, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, submission types.Submission) (types.Submission, error) {
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now()
	}

	const query = `
		INSERT INTO submissions (user_id, problem_id, code, language, status, score,
		                         execution_time_ms, memory_used_kb, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		submission.UserID,
		submission.ProblemID,
		submission.Code,
		submission.Language,
		submission.Status,
		submission.Score,
		submission.ExecutionTimeMs,
		submission.MemoryUsedKb,
		submission.SubmittedAt,
	).Scan(&submission.ID); err != nil {
		return types.Submission{}, err
	}

	return submission, nil
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID, offset, limit int) ([]types.Submission, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const query = `
		SELECT id, user_id, problem_id, code, language, status, score,
		       execution_time_ms, memory_used_kb, submitted_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]types.Submission, 0, limit)
	for rows.Next() {
		var submission types.Submission
		if err := rows.Scan(
			&submission.ID,
			&submission.UserID,
			&submission.ProblemID,
			&submission.Code,
			&submission.Language,
			&submission.Status,
			&submission.Score,
			&submission.ExecutionTimeMs,
			&submission.MemoryUsedKb,
			&submission.SubmittedAt,
		); err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return submissions, nil
}
