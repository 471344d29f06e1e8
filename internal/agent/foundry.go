package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20

// FoundryClient runs an Azure AI Foundry agent over the Agents REST API
type FoundryClient struct {
	endpoint     string
	agentID      string
	token        string
	apiVersion   string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *zap.Logger
}

// FoundryOption configures a FoundryClient
type FoundryOption func(*FoundryClient)

// WithAPIVersion sets the api-version query parameter
func WithAPIVersion(version string) FoundryOption {
	return func(c *FoundryClient) {
		c.apiVersion = version
	}
}

// WithPollInterval sets how often a run's status is checked
func WithPollInterval(d time.Duration) FoundryOption {
	return func(c *FoundryClient) {
		c.pollInterval = d
	}
}

// WithHTTPClient replaces the HTTP client used for requests
func WithHTTPClient(client *http.Client) FoundryOption {
	return func(c *FoundryClient) {
		c.httpClient = client
	}
}

// NewFoundryClient creates a client for the agent agentID in the project at endpoint
func NewFoundryClient(endpoint, agentID, token string, logger *zap.Logger, opts ...FoundryOption) *FoundryClient {
	c := &FoundryClient{
		endpoint:     strings.TrimRight(endpoint, "/"),
		agentID:      agentID,
		token:        token,
		apiVersion:   "v1",
		pollInterval: 500 * time.Millisecond,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateThread opens a new conversation thread
func (c *FoundryClient) CreateThread(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/threads", nil, map[string]interface{}{})
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	id := gjson.GetBytes(data, "id").String()
	if id == "" {
		return "", fmt.Errorf("thread response has no id")
	}

	c.logger.Debug("thread created", zap.String("thread_id", id))
	return id, nil
}

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type runRequest struct {
	AssistantID string `json:"assistant_id"`
}

// Run posts prompt as a user message, starts a run and polls it to completion
func (c *FoundryClient) Run(ctx context.Context, threadID, prompt string) (*RunResult, error) {
	threadPath := "/threads/" + url.PathEscape(threadID)

	if _, err := c.do(ctx, http.MethodPost, threadPath+"/messages", nil, messageRequest{Role: "user", Content: prompt}); err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, threadPath+"/runs", nil, runRequest{AssistantID: c.agentID})
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	runID := gjson.GetBytes(data, "id").String()
	status := gjson.GetBytes(data, "status").String()
	if runID == "" {
		return nil, fmt.Errorf("run response has no id")
	}

	for !isTerminal(status) {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("run %s did not finish: %w", runID, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		data, err = c.do(ctx, http.MethodGet, threadPath+"/runs/"+url.PathEscape(runID), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to poll run: %w", err)
		}
		status = gjson.GetBytes(data, "status").String()
	}

	c.logger.Debug("run finished",
		zap.String("thread_id", threadID),
		zap.String("run_id", runID),
		zap.String("status", status),
	)

	result := &RunResult{
		Status:    status,
		LastError: gjson.GetBytes(data, "last_error.message").String(),
	}
	if status == StatusRequiresAction {
		// a run waiting for tool outputs blocks the thread until it expires
		c.cancelRun(ctx, threadPath, runID)
		return result, nil
	}
	if status != StatusCompleted {
		return result, nil
	}

	query := url.Values{}
	query.Set("limit", "1")
	query.Set("order", "desc")
	data, err = c.do(ctx, http.MethodGet, threadPath+"/messages", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	latest := gjson.GetBytes(data, "data.0")
	if !latest.Exists() {
		result.NoMessage = true
		return result, nil
	}
	if latest.Get("role").String() == "assistant" {
		latest.Get("content").ForEach(func(_, part gjson.Result) bool {
			if part.Get("type").String() == "text" {
				result.Reply = part.Get("text.value").String()
				return false
			}
			return true
		})
	}

	return result, nil
}

// cancelRun asks the service to cancel a run; failures are only logged
func (c *FoundryClient) cancelRun(ctx context.Context, threadPath, runID string) {
	if _, err := c.do(ctx, http.MethodPost, threadPath+"/runs/"+url.PathEscape(runID)+"/cancel", nil, map[string]interface{}{}); err != nil {
		c.logger.Warn("failed to cancel run waiting for tool outputs",
			zap.String("run_id", runID),
			zap.Error(err),
		)
		return
	}
	c.logger.Info("cancelled run waiting for tool outputs", zap.String("run_id", runID))
}

// do sends a JSON request and returns the response body
func (c *FoundryClient) do(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.apiVersion)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path+"?"+query.Encode(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call agent service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(data, "error.message").String(); msg != "" {
			return nil, fmt.Errorf("agent service returned status %s: %s", resp.Status, msg)
		}
		return nil, fmt.Errorf("agent service returned status %s", resp.Status)
	}

	return data, nil
}
