package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/judge"
)

// In-memory repository doubles. They honor the same sentinel-error contracts
// as the postgres implementations so services under test cannot tell them
// apart.

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*model.User
	solved    map[string]map[string]bool
	solvedErr error
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:  make(map[string]*model.User),
		solved: make(map[string]map[string]bool),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return common.ErrConflict
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) HasSolved(_ context.Context, userID, problemID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.solvedErr != nil {
		return false, r.solvedErr
	}
	return r.solved[userID][problemID], nil
}

func (r *fakeUserRepo) AddSolvedProblem(_ context.Context, userID, problemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.solvedErr != nil {
		return r.solvedErr
	}
	if r.solved[userID] == nil {
		r.solved[userID] = make(map[string]bool)
	}
	r.solved[userID][problemID] = true
	return nil
}

func (r *fakeUserRepo) ListSolvedProblems(_ context.Context, userID string) ([]model.ProblemSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summaries := []model.ProblemSummary{}
	for problemID := range r.solved[userID] {
		summaries = append(summaries, model.ProblemSummary{ID: problemID})
	}
	return summaries, nil
}

func (r *fakeUserRepo) hasSolved(userID, problemID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.solved[userID][problemID]
}

type fakeProblemRepo struct {
	mu       sync.Mutex
	problems map[string]*model.Problem
}

func newFakeProblemRepo(problems ...*model.Problem) *fakeProblemRepo {
	r := &fakeProblemRepo{problems: make(map[string]*model.Problem)}
	for _, p := range problems {
		r.problems[p.ID] = p
	}
	return r
}

func (r *fakeProblemRepo) Create(_ context.Context, problem *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.problems[problem.ID] = problem
	return nil
}

func (r *fakeProblemRepo) Update(_ context.Context, problem *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[problem.ID]; !ok {
		return common.ErrNotFound
	}
	r.problems[problem.ID] = problem
	return nil
}

func (r *fakeProblemRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.problems, id)
	return nil
}

func (r *fakeProblemRepo) FindByID(_ context.Context, id string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (r *fakeProblemRepo) ListAll(_ context.Context) ([]model.ProblemSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summaries := []model.ProblemSummary{}
	for _, p := range r.problems {
		summaries = append(summaries, model.ProblemSummary{
			ID: p.ID, Title: p.Title, Difficulty: p.Difficulty, Tags: p.Tags,
		})
	}
	return summaries, nil
}

type fakeSubmissionRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{rows: make(map[string]*model.Submission)}
}

func (r *fakeSubmissionRepo) Create(_ context.Context, submission *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	submission.CreatedAt = time.Now()
	clone := *submission
	r.rows[submission.ID] = &clone
	return nil
}

func (r *fakeSubmissionRepo) UpdateResult(_ context.Context, submission *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[submission.ID]; !ok {
		return common.ErrNotFound
	}
	clone := *submission
	r.rows[submission.ID] = &clone
	return nil
}

func (r *fakeSubmissionRepo) ListByUserAndProblem(_ context.Context, userID, problemID string) ([]model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Submission{}
	for _, row := range r.rows {
		if row.UserID == userID && row.ProblemID == problemID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) get(id string) *model.Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *fakeSubmissionRepo) all() []*model.Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Submission{}
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out
}

// judgeStub fakes the judge's two batch endpoints. Submitted cases are
// recorded for assertions; verdicts come from a script indexed by case
// position within the batch.
type judgeStub struct {
	mu       sync.Mutex
	script   []judge.Verdict
	received []judge.Case
	server   *httptest.Server
}

func newJudgeStub(t *testing.T, script []judge.Verdict) *judgeStub {
	t.Helper()
	stub := &judgeStub{script: script}
	stub.server = httptest.NewServer(http.HandlerFunc(stub.handle))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *judgeStub) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Submissions []judge.Case `json:"submissions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.received = append(s.received, payload.Submissions...)
		tokens := make([]map[string]string, len(payload.Submissions))
		for i := range payload.Submissions {
			tokens[i] = map[string]string{"token": fmt.Sprintf("tok-%d", i)}
		}
		json.NewEncoder(w).Encode(tokens)

	case http.MethodGet:
		tokens := strings.Split(r.URL.Query().Get("tokens"), ",")
		verdicts := make([]judge.Verdict, 0, len(tokens))
		for _, tok := range tokens {
			idx, err := strconv.Atoi(strings.TrimPrefix(tok, "tok-"))
			if err != nil || idx >= len(s.script) {
				http.Error(w, "unknown token", http.StatusNotFound)
				return
			}
			v := s.script[idx]
			v.Token = tok
			verdicts = append(verdicts, v)
		}
		json.NewEncoder(w).Encode(map[string]any{"submissions": verdicts})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *judgeStub) client() *judge.Client {
	return judge.NewClient(nil, judge.Config{
		BaseURL:      s.server.URL,
		PollInterval: 2 * time.Millisecond,
	}, nil)
}

func (s *judgeStub) receivedCases() []judge.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]judge.Case(nil), s.received...)
}

func strPtr(s string) *string { return &s }
