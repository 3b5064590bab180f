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

type ProblemRepository interface {
	Create(ctx context.Context, problem *model.Problem) error
	Update(ctx context.Context, problem *model.Problem) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Problem, error)
	ListAll(ctx context.Context) ([]model.ProblemSummary, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) Create(ctx context.Context, problem *model.Problem) error {
	visible, err := marshalJSONB(problem.VisibleTestCases)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	hidden, err := marshalJSONB(problem.HiddenTestCases)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	startCode, err := marshalJSONB(problem.StartCode)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	solutions, err := marshalJSONB(problem.ReferenceSolutions)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	tags, err := marshalJSONB(problem.Tags)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}

	query := `INSERT INTO problems
	              (id, title, slug, description, difficulty, tags,
	               visible_test_cases, hidden_test_cases, start_code, reference_solutions, creator_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query,
		problem.ID, problem.Title, problem.Slug, problem.Description, problem.Difficulty, tags,
		visible, hidden, startCode, solutions, problem.CreatorID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("problem with this title already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) Update(ctx context.Context, problem *model.Problem) error {
	visible, err := marshalJSONB(problem.VisibleTestCases)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}
	hidden, err := marshalJSONB(problem.HiddenTestCases)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}
	startCode, err := marshalJSONB(problem.StartCode)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}
	solutions, err := marshalJSONB(problem.ReferenceSolutions)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}
	tags, err := marshalJSONB(problem.Tags)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}

	query := `UPDATE problems
	          SET title = $2, slug = $3, description = $4, difficulty = $5, tags = $6,
	              visible_test_cases = $7, hidden_test_cases = $8, start_code = $9,
	              reference_solutions = $10, updated_at = NOW()
	          WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		problem.ID, problem.Title, problem.Slug, problem.Description, problem.Difficulty, tags,
		visible, hidden, startCode, solutions,
	)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Delete: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT id, title, slug, description, difficulty, tags,
	                 visible_test_cases, hidden_test_cases, start_code, reference_solutions,
	                 creator_id, created_at, updated_at
	          FROM problems WHERE id = $1`

	problem := &model.Problem{}
	var tags, visible, hidden, startCode, solutions []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&problem.ID, &problem.Title, &problem.Slug, &problem.Description, &problem.Difficulty, &tags,
		&visible, &hidden, &startCode, &solutions,
		&problem.CreatorID, &problem.CreatedAt, &problem.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindByID: %w", err)
	}

	for _, pair := range []struct {
		data []byte
		dst  interface{}
	}{
		{tags, &problem.Tags},
		{visible, &problem.VisibleTestCases},
		{hidden, &problem.HiddenTestCases},
		{startCode, &problem.StartCode},
		{solutions, &problem.ReferenceSolutions},
	} {
		if err := unmarshalJSONB(pair.data, pair.dst); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.FindByID: %w", err)
		}
	}
	return problem, nil
}

func (r *pgProblemRepository) ListAll(ctx context.Context) ([]model.ProblemSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, difficulty, tags FROM problems ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListAll: %w", err)
	}
	defer rows.Close()

	summaries := []model.ProblemSummary{}
	for rows.Next() {
		var s model.ProblemSummary
		var tags []byte
		if err := rows.Scan(&s.ID, &s.Title, &s.Difficulty, &tags); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListAll: %w", err)
		}
		if err := unmarshalJSONB(tags, &s.Tags); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListAll: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
