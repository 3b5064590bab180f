package service_test

import (
	"context"
	"testing"
	"time"

	"leetlab/internal/app/service"
	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/judge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumProblem() *model.Problem {
	return &model.Problem{
		ID:          "p-1",
		Title:       "Add Two Numbers",
		Slug:        "add-two-numbers",
		Description: "Read two integers and print their sum.",
		Difficulty:  model.DifficultyEasy,
		VisibleTestCases: []model.TestCase{
			{Input: "1 2", Output: "3", Explanation: "1 + 2 = 3"},
			{Input: "5 7", Output: "12"},
		},
		HiddenTestCases: []model.TestCase{
			{Input: "10 20", Output: "30"},
			{Input: "0 0", Output: "0"},
			{Input: "-3 3", Output: "0"},
		},
	}
}

type submissionFixture struct {
	users       *fakeUserRepo
	problems    *fakeProblemRepo
	submissions *fakeSubmissionRepo
	stub        *judgeStub
	svc         *service.SubmissionService
}

func newSubmissionFixture(t *testing.T, script []judge.Verdict) *submissionFixture {
	t.Helper()
	fix := &submissionFixture{
		users:       newFakeUserRepo(&model.User{ID: "u-1", Role: model.RoleUser}),
		problems:    newFakeProblemRepo(sumProblem()),
		submissions: newFakeSubmissionRepo(),
		stub:        newJudgeStub(t, script),
	}
	fix.svc = service.NewSubmissionService(
		fix.submissions, fix.problems, fix.users,
		fix.stub.client(), time.Second, nil,
	)
	return fix
}

func TestSubmitAllAccepted(t *testing.T) {
	fix := newSubmissionFixture(t, []judge.Verdict{
		{StatusID: 3, Time: "0.01", Memory: 1000},
		{StatusID: 3, Time: "0.02", Memory: 2000},
		{StatusID: 3, Time: "0.03", Memory: 1500},
	})

	sub, err := fix.svc.Submit(context.Background(), "u-1", "p-1", service.SubmitRequest{
		Code: "a, b = map(int, input().split()); print(a + b)", Language: "python",
	})

	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, sub.Status)
	assert.Equal(t, 3, sub.TestCasesTotal)
	assert.Equal(t, 3, sub.TestCasesPassed)
	assert.InDelta(t, 0.06, sub.Runtime, 1e-9)
	assert.Equal(t, 2000, sub.Memory)
	assert.Nil(t, sub.ErrorMessage)

	// The dispatched batch carries hidden cases with expected output attached.
	cases := fix.stub.receivedCases()
	require.Len(t, cases, 3)
	assert.Equal(t, "10 20", cases[0].Stdin)
	assert.Equal(t, "30", cases[0].ExpectedOutput)
	assert.Equal(t, 71, cases[0].LanguageID)

	// Persisted row matches the returned one and the problem is marked solved.
	stored := fix.submissions.get(sub.ID)
	require.NotNil(t, stored)
	assert.Equal(t, model.StatusAccepted, stored.Status)
	assert.True(t, fix.users.hasSolved("u-1", "p-1"))
}

func TestSubmitRuntimeErrorDoesNotMarkSolved(t *testing.T) {
	fix := newSubmissionFixture(t, []judge.Verdict{
		{StatusID: 3, Time: "0.01", Memory: 1000},
		{StatusID: 4, Stderr: strPtr("segfault")},
		{StatusID: 3, Time: "0.03", Memory: 1500},
	})

	sub, err := fix.svc.Submit(context.Background(), "u-1", "p-1", service.SubmitRequest{
		Code: "boom", Language: "python",
	})

	require.NoError(t, err)
	assert.Equal(t, model.StatusError, sub.Status)
	assert.Equal(t, 2, sub.TestCasesPassed)
	if assert.NotNil(t, sub.ErrorMessage) {
		assert.Equal(t, "segfault", *sub.ErrorMessage)
	}
	assert.False(t, fix.users.hasSolved("u-1", "p-1"))
}

func TestSubmitWrongAnswer(t *testing.T) {
	fix := newSubmissionFixture(t, []judge.Verdict{
		{StatusID: 3, Time: "0.01", Memory: 1000},
		{StatusID: 3, Time: "0.02", Memory: 1100},
		{StatusID: 5, Stderr: nil},
	})

	sub, err := fix.svc.Submit(context.Background(), "u-1", "p-1", service.SubmitRequest{
		Code: "print(1)", Language: "python",
	})

	require.NoError(t, err)
	assert.Equal(t, model.StatusWrong, sub.Status)
	assert.Equal(t, 2, sub.TestCasesPassed)
	assert.Nil(t, sub.ErrorMessage)
	assert.False(t, fix.users.hasSolved("u-1", "p-1"))
}

func TestSubmitValidation(t *testing.T) {
	fix := newSubmissionFixture(t, nil)

	_, err := fix.svc.Submit(context.Background(), "u-1", "p-1", service.SubmitRequest{Language: "python"})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, err = fix.svc.Submit(context.Background(), "u-1", "p-1", service.SubmitRequest{Code: "x"})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, err = fix.svc.Submit(context.Background(), "u-1", "nope", service.SubmitRequest{Code: "x", Language: "python"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = fix.svc.Submit(context.Background(), "u-1", "p-1", service.SubmitRequest{Code: "x", Language: "cobol"})
	assert.ErrorIs(t, err, common.ErrUnsupportedLanguage)

	// No judge traffic for rejected submissions.
	assert.Empty(t, fix.stub.receivedCases())
}

func TestSubmitNoHiddenCases(t *testing.T) {
	fix := newSubmissionFixture(t, nil)
	broken := sumProblem()
	broken.ID = "p-2"
	broken.HiddenTestCases = nil
	require.NoError(t, fix.problems.Create(context.Background(), broken))

	_, err := fix.svc.Submit(context.Background(), "u-1", "p-2", service.SubmitRequest{
		Code: "x", Language: "python",
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

// A judge outage after the pending row is written leaves that row behind in
// pending status.
func TestSubmitJudgeDownLeavesPendingRow(t *testing.T) {
	fix := newSubmissionFixture(t, nil)
	fix.stub.server.Close()

	_, err := fix.svc.Submit(context.Background(), "u-1", "p-1", service.SubmitRequest{
		Code: "x", Language: "python",
	})

	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	rows := fix.submissions.all()
	require.Len(t, rows, 1)
	assert.Equal(t, model.StatusPending, rows[0].Status)
	assert.False(t, fix.users.hasSolved("u-1", "p-1"))
}

// A failed solved-set write is logged, not surfaced; the graded submission
// still comes back accepted.
func TestSubmitSolvedSetFailureIsNonFatal(t *testing.T) {
	fix := newSubmissionFixture(t, []judge.Verdict{
		{StatusID: 3, Time: "0.01", Memory: 1000},
		{StatusID: 3, Time: "0.01", Memory: 1000},
		{StatusID: 3, Time: "0.01", Memory: 1000},
	})
	fix.users.solvedErr = assert.AnError

	sub, err := fix.svc.Submit(context.Background(), "u-1", "p-1", service.SubmitRequest{
		Code: "x", Language: "python",
	})

	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, sub.Status)
}

func TestRunVisibleCases(t *testing.T) {
	fix := newSubmissionFixture(t, []judge.Verdict{
		{StatusID: 3, Stdout: strPtr("3\n"), Time: "0.01", Memory: 900},
		{StatusID: 3, Stdout: strPtr("12\n"), Time: "0.01", Memory: 900},
	})

	res, err := fix.svc.Run(context.Background(), "u-1", "p-1", service.RunRequest{
		Code: "a, b = map(int, input().split()); print(a + b)", Language: "python",
	})

	require.NoError(t, err)
	assert.False(t, res.Custom)
	require.Len(t, res.Verdicts, 2)

	cases := fix.stub.receivedCases()
	require.Len(t, cases, 2)
	assert.Equal(t, "1 2", cases[0].Stdin)
	assert.Equal(t, "3", cases[0].ExpectedOutput)

	// Practice runs never touch storage.
	assert.Empty(t, fix.submissions.all())
}

func TestRunCustomStdin(t *testing.T) {
	fix := newSubmissionFixture(t, []judge.Verdict{
		{StatusID: 3, Stdout: strPtr("4\n"), Time: "0.026", Memory: 7836},
	})

	res, err := fix.svc.Run(context.Background(), "u-1", "p-1", service.RunRequest{
		Code:     "a, b = map(int, input().split()); print(a + b)",
		Language: "python",
		Stdin:    strPtr("2 2"),
	})

	require.NoError(t, err)
	assert.True(t, res.Custom)
	require.Len(t, res.Verdicts, 1)
	require.NotNil(t, res.Verdicts[0].Stdout)
	assert.Equal(t, "4\n", *res.Verdicts[0].Stdout)

	// Custom mode sends exactly one case with no expected output.
	cases := fix.stub.receivedCases()
	require.Len(t, cases, 1)
	assert.Equal(t, "2 2", cases[0].Stdin)
	assert.Empty(t, cases[0].ExpectedOutput)
}

func TestHistory(t *testing.T) {
	fix := newSubmissionFixture(t, []judge.Verdict{
		{StatusID: 3, Time: "0.01", Memory: 1000},
		{StatusID: 3, Time: "0.01", Memory: 1000},
		{StatusID: 3, Time: "0.01", Memory: 1000},
	})

	_, err := fix.svc.Submit(context.Background(), "u-1", "p-1", service.SubmitRequest{
		Code: "x", Language: "python",
	})
	require.NoError(t, err)

	history, err := fix.svc.History(context.Background(), "u-1", "p-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	history, err = fix.svc.History(context.Background(), "u-2", "p-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = fix.svc.History(context.Background(), "", "p-1")
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
