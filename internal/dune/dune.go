// Package dune provides a client for a remote query-execution API: it kicks
// off a parameterized query run and polls until the execution reaches a
// terminal state. The ingestion core only consumes the resulting execution
// identifier, which addresses the execution's result artifact.
package dune

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/analytics-infra/chrunner/internal/config"
)

// completedStates and failedStates enumerate the terminal execution states
// the API has been observed to report.
var (
	completedStates = map[string]bool{
		"completed": true, "success": true, "succeeded": true,
		"finished": true, "done": true, "query_state_completed": true,
	}
	failedStates = map[string]bool{
		"failed": true, "error": true, "cancelled": true, "query_state_failed": true,
	}
)

// Client talks to the remote query-execution API.
type Client struct {
	baseURL      string
	apiKey       string
	timeout      time.Duration
	pollInterval time.Duration
	http         *http.Client
	logger       *slog.Logger
}

// New creates a client from config.
func New(cfg config.DuneConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("dune api key is required; set CH_QUERY_VAR_DUNE_API_KEY or DUNE_API_KEY")
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		http:         &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}, nil
}

// Execute submits a query run with the given parameters and returns the
// execution ID.
func (c *Client) Execute(ctx context.Context, queryID string, params map[string]string) (string, error) {
	payload, err := json.Marshal(map[string]any{"query_parameters": params})
	if err != nil {
		return "", fmt.Errorf("encode execute payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/query/%s/execute", c.baseURL, queryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build execute request: %w", err)
	}
	req.Header.Set("X-Dune-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute query %s: %w", queryID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("execute query %s: unexpected status %s", queryID, resp.Status)
	}

	var body struct {
		ExecutionID    string `json:"execution_id"`
		ExecutionIDAlt string `json:"executionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode execute response for query %s: %w", queryID, err)
	}

	execID := body.ExecutionID
	if execID == "" {
		execID = body.ExecutionIDAlt
	}
	if execID == "" {
		return "", fmt.Errorf("execute query %s: response carried no execution id", queryID)
	}

	c.logger.Info("execution started", "query_id", queryID, "execution_id", execID)
	return execID, nil
}

// statusResponse is the subset of the status body the runner cares about.
type statusResponse struct {
	State    string `json:"state"`
	Progress any    `json:"progress"`
	Message  string `json:"message"`
}

// Wait polls the execution's status until it completes, fails, or the
// configured timeout elapses. A completed execution returns nil.
func (c *Client) Wait(ctx context.Context, execID string) error {
	deadline := time.Now().Add(c.timeout)
	lastLog := time.Time{}

	for time.Now().Before(deadline) {
		status, err := c.fetchStatus(ctx, execID)
		if err != nil {
			return err
		}

		state := strings.ToLower(status.State)
		if time.Since(lastLog) >= 10*time.Second {
			c.logger.Info("execution status",
				"execution_id", execID, "state", state, "progress", status.Progress)
			lastLog = time.Now()
		}

		if completedStates[state] {
			c.logger.Info("execution completed", "execution_id", execID)
			return nil
		}
		if failedStates[state] {
			return fmt.Errorf("execution %s failed in state %q: %s", execID, state, status.Message)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	return fmt.Errorf("timed out after %s waiting for execution %s", c.timeout, execID)
}

// fetchStatus performs one status poll.
func (c *Client) fetchStatus(ctx context.Context, execID string) (statusResponse, error) {
	endpoint := fmt.Sprintf("%s/execution/%s/status", c.baseURL, execID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return statusResponse{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("X-Dune-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return statusResponse{}, fmt.Errorf("poll execution %s: %w", execID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusResponse{}, fmt.Errorf("poll execution %s: unexpected status %s", execID, resp.Status)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return statusResponse{}, fmt.Errorf("decode status for execution %s: %w", execID, err)
	}
	return status, nil
}
