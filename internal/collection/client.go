package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.apify.com/v2"

// Run statuses reported by the actor platform.
const (
	RunStatusReady     = "READY"
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
	RunStatusAborted   = "ABORTED"
	RunStatusTimedOut  = "TIMED-OUT"
)

// ActorRun describes a single actor execution.
type ActorRun struct {
	ID               string `json:"id"`
	ActorID          string `json:"actId"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
	StartedAt        string `json:"startedAt"`
	FinishedAt       string `json:"finishedAt"`
}

// Finished reports whether the run has reached a terminal status.
func (r *ActorRun) Finished() bool {
	switch r.Status {
	case RunStatusSucceeded, RunStatusFailed, RunStatusAborted, RunStatusTimedOut:
		return true
	}
	return false
}

type runResponse struct {
	Data ActorRun `json:"data"`
}

// Client talks to the Apify actor platform. Collectors use it to start
// scraping runs and fetch the resulting dataset items.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      RetryPolicy

	pollInterval time.Duration
	maxWait      time.Duration
}

// NewClient creates a client authenticated with the given API token.
func NewClient(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry:        DefaultRetryPolicy(),
		pollInterval: 5 * time.Second,
		maxWait:      5 * time.Minute,
	}
}

// StartRun starts an actor run with the given input.
func (c *Client) StartRun(ctx context.Context, actorID string, input map[string]any) (*ActorRun, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/acts/%s/runs", c.baseURL, actorID)

	var run runResponse
	err = Retry(ctx, c.retry, func() error {
		return c.doJSON(ctx, http.MethodPost, endpoint, bytes.NewReader(body), &run)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start actor run for %s: %w", actorID, err)
	}

	return &run.Data, nil
}

// GetRun fetches the current state of an actor run.
func (c *Client) GetRun(ctx context.Context, runID string) (*ActorRun, error) {
	endpoint := fmt.Sprintf("%s/actor-runs/%s", c.baseURL, runID)

	var run runResponse
	err := Retry(ctx, c.retry, func() error {
		return c.doJSON(ctx, http.MethodGet, endpoint, nil, &run)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get actor run %s: %w", runID, err)
	}

	return &run.Data, nil
}

// WaitForRun polls the run until it reaches a terminal status or the
// maximum wait elapses.
func (c *Client) WaitForRun(ctx context.Context, runID string) (*ActorRun, error) {
	deadline := time.Now().Add(c.maxWait)

	for {
		run, err := c.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		if run.Finished() {
			return run, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("actor run %s did not finish within %v", runID, c.maxWait)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for run cancelled: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

// DatasetItems fetches the items produced by a finished run.
func (c *Client) DatasetItems(ctx context.Context, datasetID string) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/datasets/%s/items", c.baseURL, datasetID)

	var items []map[string]any
	err := Retry(ctx, c.retry, func() error {
		return c.doJSON(ctx, http.MethodGet, endpoint, nil, &items)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset %s: %w", datasetID, err)
	}

	return items, nil
}

// RunActorAndCollect starts a run, waits for it to finish, and returns
// the dataset items it produced.
func (c *Client) RunActorAndCollect(ctx context.Context, actorID string, input map[string]any) ([]map[string]any, error) {
	run, err := c.StartRun(ctx, actorID, input)
	if err != nil {
		return nil, err
	}

	run, err = c.WaitForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	if run.Status != RunStatusSucceeded {
		return nil, fmt.Errorf("actor run %s ended with status %s", run.ID, run.Status)
	}

	return c.DatasetItems(ctx, run.DefaultDatasetID)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewRetryableError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		delay := retryAfterHint(resp)
		return NewRetryableErrorWithDelay(fmt.Errorf("rate limited (status %d)", resp.StatusCode), delay)
	case resp.StatusCode >= 500:
		return NewRetryableError(fmt.Errorf("server error (status %d)", resp.StatusCode))
	case resp.StatusCode >= 400:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func retryAfterHint(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			return d
		}
	}
	return 10 * time.Second
}
