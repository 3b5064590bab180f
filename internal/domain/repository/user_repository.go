package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Delete(ctx context.Context, id string) error

	HasSolved(ctx context.Context, userID, problemID string) (bool, error)
	AddSolvedProblem(ctx context.Context, userID, problemID string) error
	ListSolvedProblems(ctx context.Context, userID string) ([]model.ProblemSummary, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, first_name, email, hashed_password, role)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.FirstName, user.Email, user.HashedPassword, user.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique constraint violation
			return fmt.Errorf("account with this email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT id, first_name, email, hashed_password, role, created_at
	          FROM users WHERE email = $1`
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.FirstName, &user.Email, &user.HashedPassword, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, first_name, email, hashed_password, role, created_at
	          FROM users WHERE id = $1`
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.FirstName, &user.Email, &user.HashedPassword, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) HasSolved(ctx context.Context, userID, problemID string) (bool, error) {
	query := `SELECT EXISTS (
	              SELECT 1 FROM user_solved_problems WHERE user_id = $1 AND problem_id = $2
	          )`
	var solved bool
	if err := r.db.QueryRowContext(ctx, query, userID, problemID).Scan(&solved); err != nil {
		return false, fmt.Errorf("pgUserRepository.HasSolved: %w", err)
	}
	return solved, nil
}

func (r *pgUserRepository) AddSolvedProblem(ctx context.Context, userID, problemID string) error {
	query := `INSERT INTO user_solved_problems (user_id, problem_id)
	          VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, problemID); err != nil {
		return fmt.Errorf("pgUserRepository.AddSolvedProblem: %w", err)
	}
	return nil
}

func (r *pgUserRepository) ListSolvedProblems(ctx context.Context, userID string) ([]model.ProblemSummary, error) {
	query := `SELECT p.id, p.title, p.difficulty, p.tags
	          FROM problems p
	          JOIN user_solved_problems s ON s.problem_id = p.id
	          WHERE s.user_id = $1
	          ORDER BY s.solved_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.ListSolvedProblems: %w", err)
	}
	defer rows.Close()

	summaries := []model.ProblemSummary{}
	for rows.Next() {
		var s model.ProblemSummary
		var tags []byte
		if err := rows.Scan(&s.ID, &s.Title, &s.Difficulty, &tags); err != nil {
			return nil, fmt.Errorf("pgUserRepository.ListSolvedProblems: %w", err)
		}
		if err := unmarshalJSONB(tags, &s.Tags); err != nil {
			return nil, fmt.Errorf("pgUserRepository.ListSolvedProblems: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
