package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status=%d code=%s", e.Status, e.Code)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Agents(ctx context.Context) ([]contractx.AgentInfo, error) {
	var out []contractx.AgentInfo
	err := c.do(ctx, http.MethodGet, "/api/agents", nil, &out)
	return out, err
}

func (c *Client) AgentConfig(ctx context.Context, agentCtx contractx.AgentContext) (contractx.AgentInfo, error) {
	var out contractx.AgentInfo
	err := c.do(ctx, http.MethodGet, "/api/agents/"+url.PathEscape(string(agentCtx)), nil, &out)
	return out, err
}

func (c *Client) SuggestedQuestions(ctx context.Context, agentCtx contractx.AgentContext) ([]string, error) {
	out := []string{}
	err := c.do(ctx, http.MethodGet, "/api/agents/"+url.PathEscape(string(agentCtx))+"/suggestions", nil, &out)
	return out, err
}

// Chat sends one turn. It never retries.
func (c *Client) Chat(ctx context.Context, agentCtx contractx.AgentContext, msgs []contractx.ConversationMessage, conversationID string) (contractx.ChatResponse, error) {
	var out contractx.ChatResponse
	body := chatBody{Messages: msgs, ConversationID: conversationID}
	err := c.do(ctx, http.MethodPost, "/api/agents/"+url.PathEscape(string(agentCtx))+"/chat", body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode, Code: CodeInternal, Message: FallbackMessage}
		var body errorBody
		if json.Unmarshal(raw, &body) == nil && body.Error.Code != "" {
			apiErr.Code = body.Error.Code
			apiErr.Message = body.Error.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
