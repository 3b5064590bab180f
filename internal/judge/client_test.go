package judge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/judge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageIDCaseInsensitive(t *testing.T) {
	for tag, want := range map[string]int{
		"c++":        54,
		"C++":        54,
		"Java":       62,
		"JAVASCRIPT": 63,
		"python":     71,
	} {
		id, err := judge.LanguageID(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, want, id, tag)
	}
}

func TestLanguageIDUnsupported(t *testing.T) {
	_, err := judge.LanguageID("brainfuck")
	assert.ErrorIs(t, err, common.ErrUnsupportedLanguage)
}

func newClient(t *testing.T, baseURL string) *judge.Client {
	t.Helper()
	return judge.NewClient(nil, judge.Config{
		BaseURL:      baseURL,
		PollInterval: 2 * time.Millisecond,
	}, nil)
}

func TestSubmitBatchReturnsTokensInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/submissions/batch", r.URL.Path)
		require.Equal(t, "false", r.URL.Query().Get("base64_encoded"))

		var payload struct {
			Submissions []judge.Case `json:"submissions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Submissions, 2)
		assert.Equal(t, "1 2", payload.Submissions[0].Stdin)
		assert.Equal(t, 71, payload.Submissions[0].LanguageID)

		json.NewEncoder(w).Encode([]map[string]string{
			{"token": "tok-a"},
			{"token": "tok-b"},
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	tokens, err := client.SubmitBatch(context.Background(), []judge.Case{
		{SourceCode: "print(3)", LanguageID: 71, Stdin: "1 2", ExpectedOutput: "3"},
		{SourceCode: "print(3)", LanguageID: 71, Stdin: "2 2", ExpectedOutput: "4"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"tok-a", "tok-b"}, tokens)
}

func TestSubmitBatchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.SubmitBatch(context.Background(), []judge.Case{{LanguageID: 71}})

	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestSubmitBatchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := newClient(t, server.URL)
	_, err := client.SubmitBatch(context.Background(), []judge.Case{{LanguageID: 71}})

	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestPollVerdictsBlocksUntilTerminal(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		tokens := strings.Split(r.URL.Query().Get("tokens"), ",")
		require.Equal(t, []string{"tok-a", "tok-b"}, tokens)
		require.Contains(t, r.URL.Query().Get("fields"), "status_id")

		// First two polls report the second case still running.
		statusB := 2
		if polls.Add(1) > 2 {
			statusB = 3
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"submissions": []map[string]interface{}{
				{"token": "tok-a", "status_id": 3, "time": "0.01", "memory": 1000},
				{"token": "tok-b", "status_id": statusB, "time": "0.02", "memory": 2000},
			},
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	verdicts, err := client.PollVerdicts(context.Background(), []string{"tok-a", "tok-b"})

	require.NoError(t, err)
	require.Len(t, verdicts, 2)
	assert.Equal(t, "tok-a", verdicts[0].Token)
	assert.Equal(t, "tok-b", verdicts[1].Token)
	assert.Equal(t, 3, verdicts[1].StatusID)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestPollVerdictsDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"submissions": []map[string]interface{}{
				{"token": "tok-a", "status_id": 1},
			},
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.PollVerdicts(ctx, []string{"tok-a"})
	assert.ErrorIs(t, err, common.ErrUpstreamTimeout)
}

func TestPollVerdictsNullStreams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"submissions":[{"token":"tok-a","status_id":3,"stdout":"4\n","stderr":null,"time":"0.026","memory":7836}]}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	verdicts, err := client.PollVerdicts(context.Background(), []string{"tok-a"})

	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	require.NotNil(t, verdicts[0].Stdout)
	assert.Equal(t, "4\n", *verdicts[0].Stdout)
	assert.Nil(t, verdicts[0].Stderr)
	assert.Equal(t, 7836, verdicts[0].Memory)
}
