package service

import (
	"context"
	"log/slog"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/domain/repository"
	"leetlab/internal/judge"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var validDifficulties = map[model.Difficulty]bool{
	model.DifficultyEasy:   true,
	model.DifficultyMedium: true,
	model.DifficultyHard:   true,
}

type ProblemService struct {
	problems     repository.ProblemRepository
	users        repository.UserRepository
	judgeClient  *judge.Client
	judgeTimeout time.Duration
	logger       *slog.Logger
}

func NewProblemService(
	probRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
	judgeClient *judge.Client,
	judgeTimeout time.Duration,
	logger *slog.Logger,
) *ProblemService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProblemService{
		problems:     probRepo,
		users:        userRepo,
		judgeClient:  judgeClient,
		judgeTimeout: judgeTimeout,
		logger:       logger,
	}
}

type ProblemRequest struct {
	Title              string                    `json:"title"`
	Description        string                    `json:"description"`
	Difficulty         model.Difficulty          `json:"difficulty"`
	Tags               []string                  `json:"tags"`
	VisibleTestCases   []model.TestCase          `json:"visibleTestCases"`
	HiddenTestCases    []model.TestCase          `json:"hiddenTestCases"`
	StartCode          []model.StartCode         `json:"startCode"`
	ReferenceSolutions []model.ReferenceSolution `json:"referenceSolution"`
}

func (r *ProblemRequest) validate() error {
	if r.Title == "" || r.Description == "" {
		return common.Errorf("title and description are required: %w", common.ErrValidation)
	}
	if !validDifficulties[r.Difficulty] {
		return common.Errorf("difficulty must be easy, medium or hard: %w", common.ErrValidation)
	}
	if len(r.VisibleTestCases) == 0 || len(r.HiddenTestCases) == 0 {
		return common.Errorf("at least one visible and one hidden test case required: %w", common.ErrValidation)
	}
	for _, tc := range append(append([]model.TestCase{}, r.VisibleTestCases...), r.HiddenTestCases...) {
		if tc.Input == "" || tc.Output == "" {
			return common.Errorf("test cases must have non-empty input and output: %w", common.ErrValidation)
		}
	}
	if len(r.ReferenceSolutions) == 0 {
		return common.Errorf("a reference solution is required: %w", common.ErrValidation)
	}
	return nil
}

// Create validates the problem's test data by running every reference
// solution against the visible cases before anything is stored. A solution
// that does not come back fully accepted rejects the problem.
func (s *ProblemService) Create(ctx context.Context, creatorID string, req ProblemRequest) (*model.Problem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.verifyReferenceSolutions(ctx, req); err != nil {
		return nil, err
	}

	problem := &model.Problem{
		ID:                 uuid.NewString(),
		Title:              req.Title,
		Slug:               slug.Make(req.Title),
		Description:        req.Description,
		Difficulty:         req.Difficulty,
		Tags:               req.Tags,
		VisibleTestCases:   req.VisibleTestCases,
		HiddenTestCases:    req.HiddenTestCases,
		StartCode:          req.StartCode,
		ReferenceSolutions: req.ReferenceSolutions,
		CreatorID:          creatorID,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	if err := s.problems.Create(ctx, problem); err != nil {
		return nil, err
	}
	return problem, nil
}

func (s *ProblemService) Update(ctx context.Context, problemID string, req ProblemRequest) (*model.Problem, error) {
	if problemID == "" {
		return nil, common.Errorf("missing problem id: %w", common.ErrBadRequest)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	existing, err := s.problems.FindByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyReferenceSolutions(ctx, req); err != nil {
		return nil, err
	}

	existing.Title = req.Title
	existing.Slug = slug.Make(req.Title)
	existing.Description = req.Description
	existing.Difficulty = req.Difficulty
	existing.Tags = req.Tags
	existing.VisibleTestCases = req.VisibleTestCases
	existing.HiddenTestCases = req.HiddenTestCases
	existing.StartCode = req.StartCode
	existing.ReferenceSolutions = req.ReferenceSolutions
	existing.UpdatedAt = time.Now()

	if err := s.problems.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *ProblemService) Delete(ctx context.Context, problemID string) error {
	if problemID == "" {
		return common.Errorf("missing problem id: %w", common.ErrBadRequest)
	}
	return s.problems.Delete(ctx, problemID)
}

// GetByID returns the public view of a problem: hidden test cases never
// leave the server.
func (s *ProblemService) GetByID(ctx context.Context, problemID string) (*model.Problem, error) {
	if problemID == "" {
		return nil, common.Errorf("missing problem id: %w", common.ErrBadRequest)
	}
	problem, err := s.problems.FindByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	problem.HiddenTestCases = nil
	return problem, nil
}

func (s *ProblemService) ListAll(ctx context.Context) ([]model.ProblemSummary, error) {
	return s.problems.ListAll(ctx)
}

func (s *ProblemService) ListSolvedByUser(ctx context.Context, userID string) ([]model.ProblemSummary, error) {
	return s.users.ListSolvedProblems(ctx, userID)
}

func (s *ProblemService) verifyReferenceSolutions(ctx context.Context, req ProblemRequest) error {
	for _, sol := range req.ReferenceSolutions {
		languageID, err := judge.LanguageID(sol.Language)
		if err != nil {
			return err
		}

		batch := make([]judge.Case, len(req.VisibleTestCases))
		for i, tc := range req.VisibleTestCases {
			batch[i] = judge.Case{
				SourceCode:     sol.CompleteCode,
				LanguageID:     languageID,
				Stdin:          tc.Input,
				ExpectedOutput: tc.Output,
			}
		}

		dispatchCtx, cancel := context.WithTimeout(ctx, s.judgeTimeout)
		tokens, err := s.judgeClient.SubmitBatch(dispatchCtx, batch)
		if err != nil {
			cancel()
			return err
		}
		verdicts, err := s.judgeClient.PollVerdicts(dispatchCtx, tokens)
		cancel()
		if err != nil {
			return err
		}

		for _, v := range verdicts {
			if v.StatusID != judge.StatusIDAccepted {
				s.logger.Info("reference solution rejected",
					"language", sol.Language, "status_id", v.StatusID)
				return common.Errorf("reference solution (%s) failed a visible test case: %w",
					sol.Language, common.ErrValidation)
			}
		}
	}
	return nil
}
