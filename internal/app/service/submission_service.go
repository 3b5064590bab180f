package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/domain/repository"
	"leetlab/internal/judge"

	"github.com/google/uuid"
)

// SubmissionService is the submission orchestrator. Run and Submit share the
// same dispatch path to the judge but differ in data source (visible vs
// hidden cases) and in persistence: only Submit leaves a record behind.
type SubmissionService struct {
	submissions  repository.SubmissionRepository
	problems     repository.ProblemRepository
	users        repository.UserRepository
	judgeClient  *judge.Client
	judgeTimeout time.Duration
	logger       *slog.Logger
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
	judgeClient *judge.Client,
	judgeTimeout time.Duration,
	logger *slog.Logger,
) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionService{
		submissions:  subRepo,
		problems:     probRepo,
		users:        userRepo,
		judgeClient:  judgeClient,
		judgeTimeout: judgeTimeout,
		logger:       logger,
	}
}

type SubmitRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// RunRequest is practice mode. When Stdin is set the run is a single custom
// execution with no expected-output comparison; otherwise the code runs
// against every visible test case.
type RunRequest struct {
	Code     string  `json:"code"`
	Language string  `json:"language"`
	Stdin    *string `json:"stdin,omitempty"`
}

// RunResult tags which of the two run modes produced the verdicts.
type RunResult struct {
	Custom   bool
	Verdicts []judge.Verdict
}

// Submit grades code against the problem's hidden test cases and persists the
// outcome. The submission row is created pending before dispatch; a judge
// failure after that point leaves the pending row as a diagnostic artifact.
func (s *SubmissionService) Submit(ctx context.Context, userID, problemID string, req SubmitRequest) (*model.Submission, error) {
	if userID == "" || problemID == "" || req.Code == "" || req.Language == "" {
		return nil, common.Errorf("missing required field: %w", common.ErrBadRequest)
	}

	problem, err := s.problems.FindByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("problem %s: %w", problemID, common.ErrNotFound)
		}
		return nil, err
	}
	if len(problem.HiddenTestCases) == 0 {
		return nil, common.Errorf("problem %s has no hidden test cases: %w", problemID, common.ErrValidation)
	}

	submission := &model.Submission{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProblemID:      problem.ID,
		Code:           req.Code,
		Language:       req.Language,
		Status:         model.StatusPending,
		TestCasesTotal: len(problem.HiddenTestCases),
		CreatedAt:      time.Now(),
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, err
	}

	verdicts, err := s.dispatch(ctx, req.Code, req.Language, problem.HiddenTestCases, false)
	if err != nil {
		return nil, err
	}

	res := aggregateVerdicts(verdicts)
	submission.Status = res.Status
	submission.TestCasesPassed = res.TestCasesPassed
	submission.Runtime = res.Runtime
	submission.Memory = res.Memory
	submission.ErrorMessage = res.ErrorMessage
	if err := s.submissions.UpdateResult(ctx, submission); err != nil {
		return nil, err
	}

	// Separate write from the submission update; a crash in between leaves a
	// passed-but-unrecorded-as-solved state that the next accepted submission
	// repairs. Gated on accepted only.
	if res.Status == model.StatusAccepted {
		if err := s.markSolved(ctx, userID, problem.ID); err != nil {
			s.logger.Warn("failed to update solved set",
				"user_id", userID, "problem_id", problem.ID, "err", err)
		}
	}

	return submission, nil
}

// Run executes code without grading. Visible-case mode returns one verdict
// per visible test case; custom mode runs the supplied stdin once with no
// expected output. Nothing is persisted either way.
func (s *SubmissionService) Run(ctx context.Context, userID, problemID string, req RunRequest) (*RunResult, error) {
	if userID == "" || problemID == "" || req.Code == "" || req.Language == "" {
		return nil, common.Errorf("missing required field: %w", common.ErrBadRequest)
	}

	problem, err := s.problems.FindByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("problem %s: %w", problemID, common.ErrNotFound)
		}
		return nil, err
	}

	if req.Stdin != nil {
		verdicts, err := s.dispatch(ctx, req.Code, req.Language,
			[]model.TestCase{{Input: *req.Stdin}}, true)
		if err != nil {
			return nil, err
		}
		return &RunResult{Custom: true, Verdicts: verdicts}, nil
	}

	verdicts, err := s.dispatch(ctx, req.Code, req.Language, problem.VisibleTestCases, false)
	if err != nil {
		return nil, err
	}
	return &RunResult{Custom: false, Verdicts: verdicts}, nil
}

// dispatch is the shared submit-then-poll path. Case order is preserved end
// to end: the judge returns tokens in request order and verdicts are
// retrieved in that same order, which the aggregator's last-wins rule
// depends on.
func (s *SubmissionService) dispatch(ctx context.Context, code, language string, cases []model.TestCase, custom bool) ([]judge.Verdict, error) {
	languageID, err := judge.LanguageID(language)
	if err != nil {
		return nil, err
	}

	batch := make([]judge.Case, len(cases))
	for i, tc := range cases {
		batch[i] = judge.Case{
			SourceCode: code,
			LanguageID: languageID,
			Stdin:      tc.Input,
		}
		if !custom {
			batch[i].ExpectedOutput = tc.Output
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.judgeTimeout)
	defer cancel()

	tokens, err := s.judgeClient.SubmitBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	return s.judgeClient.PollVerdicts(ctx, tokens)
}

func (s *SubmissionService) markSolved(ctx context.Context, userID, problemID string) error {
	solved, err := s.users.HasSolved(ctx, userID, problemID)
	if err != nil {
		return err
	}
	if solved {
		return nil
	}
	return s.users.AddSolvedProblem(ctx, userID, problemID)
}

// History lists a user's graded submissions for one problem, newest first.
func (s *SubmissionService) History(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	if userID == "" || problemID == "" {
		return nil, common.Errorf("missing required field: %w", common.ErrBadRequest)
	}
	return s.submissions.ListByUserAndProblem(ctx, userID, problemID)
}
