package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/brainjam-arena/backend/config"
)

// Sentinel errors for the execution backend. Transport details never
// cross this boundary; callers only see these kinds.
var (
	// ErrServiceUnavailable means the backend rejected or never
	// received a submission request.
	ErrServiceUnavailable = errors.New("execution service unavailable")

	// ErrResultUnavailable means a result fetch failed or returned
	// malformed data.
	ErrResultUnavailable = errors.New("execution result unavailable")

	// ErrExecutionTimeout means polling exhausted its budget without
	// the backend reaching a terminal status.
	ErrExecutionTimeout = errors.New("execution timed out")
)

// Judge0 status ids 1 (In Queue) and 2 (Processing) are non-terminal;
// anything at or above 3 (Accepted, Wrong Answer, errors...) is final.
const terminalStatusID = 3

const resultFields = "status,stdout,stderr,compile_output,message,time,memory"

// Options carries per-execution resource limits forwarded to the
// backend. Zero values are omitted so the backend defaults apply.
type Options struct {
	CPUTimeLimitSec float64
	MemoryLimitKb   int64
}

// Result is the normalized outcome of one sandboxed execution.
type Result struct {
	// Output follows the backend's precedence: stdout, else compile
	// output, else the status message or description, else empty.
	Output string

	// Stderr is the program's standard error output. A non-empty
	// value disqualifies the case from passing when the run faulted.
	Stderr string

	// ExecutionTimeMs is the backend-reported wall time converted to
	// milliseconds; 0 when missing or unparseable.
	ExecutionTimeMs int64

	// MemoryUsedKb is the backend-reported memory usage in kilobytes.
	MemoryUsedKb int64

	// StatusID and StatusDescription mirror the backend status.
	StatusID          int
	StatusDescription string

	// Token identifies the remote submission.
	Token string
}

// Client talks to a Judge0-compatible execution backend over HTTP.
// It holds only fixed configuration; nothing is retained between calls.
type Client struct {
	baseURL         string
	apiKey          string
	apiHost         string
	pollInterval    time.Duration
	maxPollAttempts int
	httpClient      *http.Client
}

// NewClient constructs a Client from config.
func NewClient(cfg config.Judge0Config) *Client {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	attempts := cfg.MaxPollAttempts
	if attempts <= 0 {
		attempts = 10
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:         cfg.BaseURL,
		apiKey:          cfg.APIKey,
		apiHost:         cfg.APIHost,
		pollInterval:    interval,
		maxPollAttempts: attempts,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	SourceCode   string   `json:"source_code"`
	LanguageID   int      `json:"language_id"`
	Stdin        string   `json:"stdin"`
	CPUTimeLimit *float64 `json:"cpu_time_limit,omitempty"`
	MemoryLimit  *int64   `json:"memory_limit,omitempty"`
}

type submitResponse struct {
	Token string `json:"token"`
}

// RemoteStatus mirrors the backend's status object.
type RemoteStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// RawResult is the backend's result payload as fetched, before
// normalization. Pointer fields are null until execution finishes.
type RawResult struct {
	Status        RemoteStatus `json:"status"`
	Stdout        *string      `json:"stdout"`
	Stderr        *string      `json:"stderr"`
	CompileOutput *string      `json:"compile_output"`
	Message       *string      `json:"message"`
	Time          *string      `json:"time"`
	Memory        *int64       `json:"memory"`
}

// Submit sends source code to the backend and returns the submission
// token. Any transport or payload failure surfaces as
// ErrServiceUnavailable.
func (c *Client) Submit(ctx context.Context, sourceCode string, languageID int, stdin string, opts Options) (string, error) {
	payload := submitRequest{
		SourceCode: sourceCode,
		LanguageID: languageID,
		Stdin:      stdin,
	}
	if opts.CPUTimeLimitSec > 0 {
		payload.CPUTimeLimit = &opts.CPUTimeLimitSec
	}
	if opts.MemoryLimitKb > 0 {
		payload.MemoryLimit = &opts.MemoryLimitKb
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	url := c.baseURL + "/submissions?base64_encoded=false&wait=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Token == "" {
		return "", fmt.Errorf("%w: malformed response", ErrServiceUnavailable)
	}
	return out.Token, nil
}

// FetchResult retrieves the current state of a remote submission.
// Transport or payload failures surface as ErrResultUnavailable.
func (c *Client) FetchResult(ctx context.Context, token string) (RawResult, error) {
	url := fmt.Sprintf("%s/submissions/%s?base64_encoded=false&fields=%s", c.baseURL, token, resultFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RawResult{}, fmt.Errorf("%w: %v", ErrResultUnavailable, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RawResult{}, fmt.Errorf("%w: %v", ErrResultUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RawResult{}, fmt.Errorf("%w: status %d", ErrResultUnavailable, resp.StatusCode)
	}

	var out RawResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return RawResult{}, fmt.Errorf("%w: malformed response", ErrResultUnavailable)
	}
	return out, nil
}

// ExecuteAndWait submits source code and polls until the backend
// reports a terminal status or the polling budget runs out. This is
// the only blocking point in the grading pipeline; the wait between
// polls is cancellable through ctx.
func (c *Client) ExecuteAndWait(ctx context.Context, sourceCode string, languageID int, stdin string, opts Options) (Result, error) {
	token, err := c.Submit(ctx, sourceCode, languageID, stdin, opts)
	if err != nil {
		return Result{}, err
	}

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		raw, err := c.FetchResult(ctx, token)
		if err != nil {
			return Result{}, err
		}

		if raw.Status.ID >= terminalStatusID {
			return normalizeResult(raw, token), nil
		}

		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		}
	}

	return Result{}, ErrExecutionTimeout
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
	if c.apiHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.apiHost)
	}
}

func normalizeResult(raw RawResult, token string) Result {
	result := Result{
		Output:            outputOf(raw),
		StatusID:          raw.Status.ID,
		StatusDescription: raw.Status.Description,
		Token:             token,
	}
	if raw.Stderr != nil {
		result.Stderr = *raw.Stderr
	}
	if raw.Time != nil {
		if seconds, err := strconv.ParseFloat(*raw.Time, 64); err == nil {
			result.ExecutionTimeMs = int64(math.Round(seconds * 1000))
		}
	}
	if raw.Memory != nil {
		result.MemoryUsedKb = *raw.Memory
	}
	return result
}

func outputOf(raw RawResult) string {
	if raw.Stdout != nil && *raw.Stdout != "" {
		return *raw.Stdout
	}
	if raw.CompileOutput != nil && *raw.CompileOutput != "" {
		return *raw.CompileOutput
	}
	if raw.Message != nil && *raw.Message != "" {
		return *raw.Message
	}
	if raw.Status.Description != "" {
		return raw.Status.Description
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
