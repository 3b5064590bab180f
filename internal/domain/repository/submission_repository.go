package repository

import (
	"context"
	"database/sql"
	"fmt"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	UpdateResult(ctx context.Context, submission *model.Submission) error
	ListByUserAndProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	query := `INSERT INTO submissions
	              (id, user_id, problem_id, code, language, status, test_cases_total)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		submission.ID, submission.UserID, submission.ProblemID,
		submission.Code, submission.Language, submission.Status, submission.TestCasesTotal,
	).Scan(&submission.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

// UpdateResult writes the aggregate fields exactly once, after polling
// completes. Rows failing mid-pipeline stay pending on purpose.
func (r *pgSubmissionRepository) UpdateResult(ctx context.Context, submission *model.Submission) error {
	query := `UPDATE submissions
	          SET status = $2, test_cases_passed = $3, runtime = $4, memory = $5, error_message = $6
	          WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		submission.ID, submission.Status, submission.TestCasesPassed,
		submission.Runtime, submission.Memory, submission.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateResult: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSubmissionRepository) ListByUserAndProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	query := `SELECT id, user_id, problem_id, code, language, status,
	                 test_cases_total, test_cases_passed, runtime, memory, error_message, created_at
	          FROM submissions
	          WHERE user_id = $1 AND problem_id = $2
	          ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByUserAndProblem: %w", err)
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		var errMsg sql.NullString
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.ProblemID, &s.Code, &s.Language, &s.Status,
			&s.TestCasesTotal, &s.TestCasesPassed, &s.Runtime, &s.Memory, &errMsg, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByUserAndProblem: %w", err)
		}
		if errMsg.Valid {
			s.ErrorMessage = &errMsg.String
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}
