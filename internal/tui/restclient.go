package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/algrv/codelab/internal/workspace"
)

// timeout for REST requests; generation can take a while
const requestTimeout = 90 * time.Second

// talks to the workspace REST API
type Client struct {
	endpoint    string
	httpClient  *http.Client
	token       string
	workspaceID string
}

// creates a client for CODELAB_API_ENDPOINT, defaulting to a local server
func NewClient() *Client {
	endpoint := os.Getenv("CODELAB_API_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:8080"
	}

	return NewClientWithEndpoint(endpoint)
}

func NewClientWithEndpoint(endpoint string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// websocket URL for the current workspace
func (c *Client) EventsURL() string {
	base := c.endpoint
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	return fmt.Sprintf("%s/api/v1/workspaces/%s/ws?token=%s", base, c.workspaceID, url.QueryEscape(c.token))
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	resp, err := c.send(ctx, method, path, reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

func decodeError(status int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		if errResp.Details != "" {
			return fmt.Errorf("%s: %s (%s)", errResp.Error, errResp.Message, errResp.Details)
		}
		return fmt.Errorf("%s: %s", errResp.Error, errResp.Message)
	}

	return fmt.Errorf("request failed with status %d: %s", status, string(body))
}

func (c *Client) workspacePath(suffix string) string {
	return "/api/v1/workspaces/" + c.workspaceID + suffix
}

// creates a workspace and keeps its token for later calls
func (c *Client) CreateWorkspace(ctx context.Context) (*workspaceResponse, error) {
	var resp workspaceResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/workspaces", nil, &resp); err != nil {
		return nil, err
	}

	c.token = resp.Token
	c.workspaceID = resp.Workspace.ID

	return &resp, nil
}

func (c *Client) GetWorkspace(ctx context.Context) (*workspace.View, error) {
	var view workspace.View
	if err := c.do(ctx, http.MethodGet, c.workspacePath(""), nil, &view); err != nil {
		return nil, err
	}

	return &view, nil
}

func (c *Client) SetLanguage(ctx context.Context, language string) error {
	return c.do(ctx, http.MethodPut, c.workspacePath("/language"), map[string]string{"language": language}, nil)
}

func (c *Client) SetFramework(ctx context.Context, framework string) error {
	return c.do(ctx, http.MethodPut, c.workspacePath("/framework"), map[string]string{"framework": framework}, nil)
}

func (c *Client) Run(ctx context.Context) (*RunResult, error) {
	var result RunResult
	if err := c.do(ctx, http.MethodPost, c.workspacePath("/run"), nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) Apply(ctx context.Context) (*applyResponse, error) {
	var result applyResponse
	if err := c.do(ctx, http.MethodPost, c.workspacePath("/apply"), nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) Execute(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, c.workspacePath("/execute"), nil, nil)
}

// saves the project archive to path
func (c *Client) Download(ctx context.Context, path string) error {
	resp, err := c.send(ctx, http.MethodGet, c.workspacePath("/export"), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body) //nolint:errcheck
		return decodeError(resp.StatusCode, data)
	}

	f, err := os.Create(path) //nolint:gosec // G304: path chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close() //nolint:errcheck,gosec
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}

// tea.Cmd wrappers

func (c *Client) CreateWorkspaceCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := c.CreateWorkspace(ctx)
		if err != nil {
			return ErrorMsg{err: err}
		}

		return WorkspaceCreatedMsg{view: resp.Workspace, token: resp.Token}
	}
}

func (c *Client) RefreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		view, err := c.GetWorkspace(ctx)
		if err != nil {
			return RequestErrorMsg{action: "refresh", err: err}
		}

		return WorkspaceViewMsg{view: *view}
	}
}

// runs fn then refreshes the workspace view
func (c *Client) updateCmd(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			return RequestErrorMsg{action: action, err: err}
		}

		view, err := c.GetWorkspace(ctx)
		if err != nil {
			return RequestErrorMsg{action: "refresh", err: err}
		}

		return WorkspaceViewMsg{view: *view}
	}
}

func (c *Client) SetLanguageCmd(language string) tea.Cmd {
	return c.updateCmd("language", func(ctx context.Context) error {
		return c.SetLanguage(ctx, language)
	})
}

func (c *Client) SetFrameworkCmd(framework string) tea.Cmd {
	return c.updateCmd("framework", func(ctx context.Context) error {
		return c.SetFramework(ctx, framework)
	})
}

func (c *Client) ExecuteCmd() tea.Cmd {
	return c.updateCmd("execute", c.Execute)
}

func (c *Client) RunCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := c.Run(ctx)
		if err != nil {
			return RequestErrorMsg{action: "run", err: err}
		}

		return RunFinishedMsg{result: *result}
	}
}

func (c *Client) ApplyCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := c.Apply(ctx)
		if err != nil {
			return RequestErrorMsg{action: "apply", err: err}
		}

		return ApplyFinishedMsg{written: result.Written, skipped: result.Skipped}
	}
}

func (c *Client) DownloadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := c.Download(ctx, path); err != nil {
			return RequestErrorMsg{action: "download", err: err}
		}

		return DownloadFinishedMsg{path: path}
	}
}
