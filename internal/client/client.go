// Package client provides an HTTP client for the mission control API, used
// by the mc CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/sync"
)

// Client talks to the mission control HTTP/JSON API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client targeting the given base URL (e.g.
// "http://localhost:8080"). When token is non-empty, an Authorization header
// is set on every request.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// --- Agents ---

// CreateAgentResponse carries the new agent and its raw token, which the
// server returns exactly once.
type CreateAgentResponse struct {
	Agent *AgentView `json:"agent"`
	Token string     `json:"token"`
}

// AgentView is an agent record as rendered by the API, including the
// computed presence status.
type AgentView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	BoardID    *string `json:"board_id"`
	SessionKey *string `json:"session_key"`
	LastSeenAt *string `json:"last_seen_at"`
	Status     string  `json:"status"`
}

func (c *Client) CreateAgent(ctx context.Context, name, boardID string) (*CreateAgentResponse, error) {
	body := map[string]string{"name": name}
	if boardID != "" {
		body["board_id"] = boardID
	}
	var resp CreateAgentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/agents", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListAgents(ctx context.Context, boardID string) ([]*AgentView, error) {
	path := "/v1/agents"
	if boardID != "" {
		path += "?board_id=" + url.QueryEscape(boardID)
	}
	var resp struct {
		Agents []*AgentView `json:"agents"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

func (c *Client) GetAgent(ctx context.Context, id string) (*AgentView, error) {
	var agent AgentView
	if err := c.doJSON(ctx, http.MethodGet, "/v1/agents/"+url.PathEscape(id), nil, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/agents/"+url.PathEscape(id), nil, nil)
}

// RotateAgentToken mints a fresh token for the agent and returns its raw
// value, which is not retrievable afterwards.
func (c *Client) RotateAgentToken(ctx context.Context, id string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/agents/"+url.PathEscape(id)+"/rotate-token", nil, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// --- Roster ---

// RosterEntry is one live agent in the roster.
type RosterEntry struct {
	AgentID   string  `json:"agent_id"`
	Name      string  `json:"name"`
	BoardID   string  `json:"board_id,omitempty"`
	TaskID    string  `json:"task_id,omitempty"`
	TaskTitle string  `json:"task_title,omitempty"`
	IdleSecs  float64 `json:"idle_secs"`
	Reaped    bool    `json:"reaped,omitempty"`
}

// UnclaimedTask is an in-flight task with no assigned agent.
type UnclaimedTask struct {
	ID      string `json:"id"`
	BoardID string `json:"board_id"`
	Title   string `json:"title"`
}

// RosterResponse is the full roster snapshot.
type RosterResponse struct {
	Agents         []RosterEntry   `json:"agents"`
	UnclaimedTasks []UnclaimedTask `json:"unclaimed_tasks"`
}

func (c *Client) GetRoster(ctx context.Context, staleThresholdSecs int) (*RosterResponse, error) {
	path := "/v1/agents/roster"
	if staleThresholdSecs > 0 {
		path = fmt.Sprintf("%s?stale_threshold_secs=%d", path, staleThresholdSecs)
	}
	var resp RosterResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Boards ---

// BoardView is a board record as rendered by the API.
type BoardView struct {
	ID        string `json:"id"`
	GatewayID string `json:"gateway_id"`
	Name      string `json:"name"`
	Paused    bool   `json:"paused"`
}

func (c *Client) CreateBoard(ctx context.Context, gatewayID, name string) (*BoardView, error) {
	body := map[string]string{"gateway_id": gatewayID, "name": name}
	var board BoardView
	if err := c.doJSON(ctx, http.MethodPost, "/v1/boards", body, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (c *Client) ListBoards(ctx context.Context, gatewayID string) ([]*BoardView, error) {
	path := "/v1/boards"
	if gatewayID != "" {
		path += "?gateway_id=" + url.QueryEscape(gatewayID)
	}
	var resp struct {
		Boards []*BoardView `json:"boards"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Boards, nil
}

func (c *Client) PostBoardMessage(ctx context.Context, boardID, content string, isChat bool) (*model.BoardMessage, error) {
	body := map[string]any{"content": content, "is_chat": isChat}
	var msg model.BoardMessage
	if err := c.doJSON(ctx, http.MethodPost, "/v1/boards/"+url.PathEscape(boardID)+"/messages", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// --- Gateways ---

func (c *Client) CreateGateway(ctx context.Context, gw *model.Gateway) (*model.Gateway, error) {
	body := map[string]string{
		"name":             gw.Name,
		"url":              gw.URL,
		"token":            gw.Token,
		"main_session_key": gw.MainSessionKey,
	}
	var created model.Gateway
	if err := c.doJSON(ctx, http.MethodPost, "/v1/gateways", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListGateways(ctx context.Context) ([]*model.Gateway, error) {
	var resp struct {
		Gateways []*model.Gateway `json:"gateways"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/gateways", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Gateways, nil
}

// SyncGatewayRequest carries the per-run sync flags.
type SyncGatewayRequest struct {
	IncludeMain    bool   `json:"include_main"`
	ResetSessions  bool   `json:"reset_sessions"`
	RotateTokens   bool   `json:"rotate_tokens"`
	ForceBootstrap bool   `json:"force_bootstrap"`
	BoardID        string `json:"board_id,omitempty"`
}

func (c *Client) SyncGateway(ctx context.Context, gatewayID string, req SyncGatewayRequest) (*sync.Result, error) {
	var res sync.Result
	if err := c.doJSON(ctx, http.MethodPost, "/v1/gateways/"+url.PathEscape(gatewayID)+"/sync", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// --- Tasks ---

// CreateTaskRequest carries the fields for a new task.
type CreateTaskRequest struct {
	BoardID     string `json:"board_id"`
	AgentID     string `json:"agent_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) ListTasks(ctx context.Context, boardID, agentID, status string) ([]*model.Task, error) {
	q := url.Values{}
	if boardID != "" {
		q.Set("board_id", boardID)
	}
	if agentID != "" {
		q.Set("agent_id", agentID)
	}
	if status != "" {
		q.Set("status", status)
	}
	path := "/v1/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Tasks []*model.Task `json:"tasks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *Client) ClaimTask(ctx context.Context, taskID, agentID string) (*model.Task, error) {
	body := map[string]string{"agent_id": agentID}
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(taskID)+"/claim", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CloseTask(ctx context.Context, taskID string) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(taskID)+"/close", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// --- Health ---

func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
