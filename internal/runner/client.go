package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/me/runhub/pkg/model"
)

// Client communicates with the runhub coordinator API on behalf of a runner.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pollClient *http.Client // no timeout; long polls are bounded by context
	runnerID   string
}

// NewClient creates a new runner API client with connection pooling.
func NewClient(baseURL string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		pollClient: &http.Client{
			Transport: transport,
		},
	}
}

// RunnerID returns the registered runner ID.
func (c *Client) RunnerID() string {
	return c.runnerID
}

// Register registers the runner with the coordinator and stores the runner ID.
func (c *Client) Register(ctx context.Context, req model.RegisterRunnerRequest) (*model.Runner, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/runners", body)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	var runner model.Runner
	if err := decodeResponseData(resp, &runner); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	c.runnerID = runner.ID
	return &runner, nil
}

// Heartbeat refreshes the runner's liveness timestamp.
func (c *Client) Heartbeat(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPut,
		fmt.Sprintf("/api/v1/runners/%s/heartbeat", c.runnerID), nil)
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

// Poll long-polls the coordinator for work. An empty PollResult means the
// wait deadline passed with nothing to do (204).
func (c *Client) Poll(ctx context.Context, maxWait time.Duration) (*model.PollResult, error) {
	url := fmt.Sprintf("%s/api/v1/runners/%s/work?max_wait=%s", c.baseURL, c.runnerID, maxWait)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.pollClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		resp.Body.Close()
		return &model.PollResult{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("poll: HTTP %d: %s", resp.StatusCode, body)
	}

	var result model.PollResult
	if err := decodeResponseData(resp, &result); err != nil {
		return nil, fmt.Errorf("poll: %w", err)
	}
	return &result, nil
}

// ReportStarted marks a claimed run as running.
func (c *Client) ReportStarted(ctx context.Context, runID string) error {
	return c.report(ctx, runID, "started", nil)
}

// ReportCompleted records a successful finish.
func (c *Client) ReportCompleted(ctx context.Context, runID string) error {
	return c.report(ctx, runID, "completed", nil)
}

// ReportFailed records a failed finish with the error message.
func (c *Client) ReportFailed(ctx context.Context, runID, errMsg string) error {
	body, err := json.Marshal(model.ReportRequest{Error: errMsg})
	if err != nil {
		return err
	}
	return c.report(ctx, runID, "failed", body)
}

// ReportStopped acknowledges a stop request.
func (c *Client) ReportStopped(ctx context.Context, runID string) error {
	return c.report(ctx, runID, "stopped", nil)
}

func (c *Client) report(ctx context.Context, runID, event string, body []byte) error {
	_, err := c.doRequest(ctx, http.MethodPut,
		fmt.Sprintf("/api/v1/runners/%s/runs/%s/%s", c.runnerID, runID, event), body)
	if err != nil {
		return fmt.Errorf("report %s: %w", event, err)
	}
	return nil
}

// Deregister asks the coordinator to drain this runner. The acknowledgement
// arrives on a later poll as a deregistered result.
func (c *Client) Deregister(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodDelete,
		fmt.Sprintf("/api/v1/runners/%s", c.runnerID), nil)
	if err != nil {
		return fmt.Errorf("deregister: %w", err)
	}
	return nil
}

// doRequest executes an HTTP request and returns the response.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody)
	}

	return resp, nil
}

// decodeResponseData extracts the data field from the API response envelope.
func decodeResponseData(resp *http.Response, dest any) error {
	defer resp.Body.Close()

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *model.APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}

	return json.Unmarshal(envelope.Data, dest)
}
