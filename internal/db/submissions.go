package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionRepository handles submission queue operations.
// Every method is a single-row statement; no transaction spans calls.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a submission and sets its store-assigned ID.
func (r *SubmissionRepository) Create(ctx context.Context, sub *Submission) error {
	query := `
		INSERT INTO submissions (trackid, userid, messageid)
		VALUES ($1, $2, $3)
		RETURNING submissionid
	`
	err := r.pool.QueryRow(ctx, query, sub.TrackID, sub.UserID, sub.MessageID).Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

// List returns every outstanding submission.
func (r *SubmissionRepository) List(ctx context.Context) ([]Submission, error) {
	query := `SELECT submissionid, trackid, userid, messageid FROM submissions`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(
			&sub.ID,
			&sub.TrackID,
			&sub.UserID,
			&sub.MessageID,
		); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Delete removes a submission by ID.
func (r *SubmissionRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM submissions WHERE submissionid = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting submission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
