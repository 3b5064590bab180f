package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leetlab/internal/common"
)

// Judge0 status ids. 1 and 2 mean the case is still queued or running; any
// id above 2 is terminal. 3 is an exact output match.
const (
	StatusIDAccepted = 3
	terminalFloor    = 2
)

const verdictFields = "source_code,language_id,stdin,stdout,expected_output,stderr,compile_output,status_id,time,memory,token"

// Case is one dispatched test case, in the judge's batch-submit wire shape.
type Case struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

// Verdict is the judge's per-case result. Stdout/Stderr are pointers because
// the judge reports null for streams that produced no output; Time arrives as
// a decimal string of seconds.
type Verdict struct {
	Token    string  `json:"token"`
	StatusID int     `json:"status_id"`
	Stdout   *string `json:"stdout"`
	Stderr   *string `json:"stderr"`
	Time     string  `json:"time"`
	Memory   int     `json:"memory"`
}

type Config struct {
	BaseURL      string
	APIKey       string
	APIHost      string
	PollInterval time.Duration
}

// Client is a stateless adapter over the judge's batch-submit and batch-poll
// endpoints. It holds no per-request state; concurrent use is fine.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	apiHost      string
	pollInterval time.Duration
	logger       *slog.Logger
}

func NewClient(httpClient *http.Client, cfg Config, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		apiHost:      cfg.APIHost,
		pollInterval: interval,
		logger:       logger,
	}
}

type batchSubmitRequest struct {
	Submissions []Case `json:"submissions"`
}

type batchPollResponse struct {
	Submissions []Verdict `json:"submissions"`
}

// SubmitBatch sends all cases as one batch and returns one token per case in
// request order. The operation is all-or-nothing: on any transport error or
// non-2xx response no token is usable and the batch must be treated as not
// submitted.
func (c *Client) SubmitBatch(ctx context.Context, cases []Case) ([]string, error) {
	body, err := json.Marshal(batchSubmitRequest{Submissions: cases})
	if err != nil {
		return nil, fmt.Errorf("marshal judge batch: %w", err)
	}

	endpoint := c.baseURL + "/submissions/batch?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.Errorf("submit batch: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("judge rejected batch", "status", resp.StatusCode, "body", string(payload))
		return nil, common.Errorf("submit batch: judge returned %d: %w", resp.StatusCode, common.ErrUpstreamUnavailable)
	}

	var created []struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, common.Errorf("submit batch: decode response: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	if len(created) != len(cases) {
		return nil, common.Errorf("submit batch: judge accepted %d of %d cases: %w", len(created), len(cases), common.ErrUpstreamUnavailable)
	}

	tokens := make([]string, len(created))
	for i, item := range created {
		tokens[i] = item.Token
	}
	return tokens, nil
}

// PollVerdicts blocks until every token is terminal (status_id > 2),
// re-polling on a fixed interval, and returns verdicts in token order. The
// loop has no attempt cap; callers bound it through ctx, and expiry surfaces
// as ErrUpstreamTimeout.
func (c *Client) PollVerdicts(ctx context.Context, tokens []string) ([]Verdict, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	for {
		verdicts, err := c.fetchVerdicts(ctx, tokens)
		if err != nil {
			return nil, err
		}
		if allTerminal(verdicts) {
			return verdicts, nil
		}

		select {
		case <-ctx.Done():
			return nil, common.Errorf("poll verdicts: %v: %w", ctx.Err(), common.ErrUpstreamTimeout)
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) fetchVerdicts(ctx context.Context, tokens []string) ([]Verdict, error) {
	params := url.Values{}
	params.Set("tokens", strings.Join(tokens, ","))
	params.Set("base64_encoded", "false")
	params.Set("fields", verdictFields)

	endpoint := c.baseURL + "/submissions/batch?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build judge request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, common.Errorf("poll verdicts: %v: %w", err, common.ErrUpstreamTimeout)
		}
		return nil, common.Errorf("poll verdicts: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.Errorf("poll verdicts: judge returned %d: %w", resp.StatusCode, common.ErrUpstreamUnavailable)
	}

	var payload batchPollResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, common.Errorf("poll verdicts: decode response: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	return payload.Submissions, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-rapidapi-key", c.apiKey)
	}
	if c.apiHost != "" {
		req.Header.Set("x-rapidapi-host", c.apiHost)
	}
}

func allTerminal(verdicts []Verdict) bool {
	for _, v := range verdicts {
		if v.StatusID <= terminalFloor {
			return false
		}
	}
	return true
}
