package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanpawarit/talent-assistant/agent/catalog"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/agent/datastore"
	promptx "github.com/tanpawarit/talent-assistant/agent/prompt"
	"github.com/tanpawarit/talent-assistant/agent/tool"
)

type unusedRepository struct {
	datastore.Repository
}

type fakeChat struct {
	mu   sync.Mutex
	reqs []contractx.ChatRequest
	resp contractx.ChatResponse
	err  error
}

func (f *fakeChat) Chat(ctx context.Context, req contractx.ChatRequest) (contractx.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

type memoryStore struct {
	mu    sync.Mutex
	convs map[string][]contractx.ConversationMessage
}

func (m *memoryStore) Append(ctx context.Context, id string, msgs ...contractx.ConversationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.convs == nil {
		m.convs = map[string][]contractx.ConversationMessage{}
	}
	m.convs[id] = append(m.convs[id], msgs...)
	return nil
}

func (m *memoryStore) Read(ctx context.Context, id string) ([]contractx.ConversationMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contractx.ConversationMessage{}, m.convs[id]...), nil
}

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	registry, err := tool.Build(unusedRepository{})
	require.NoError(t, err)
	cat, err := catalog.New(promptx.MustLoadPromptSet(), registry)
	require.NoError(t, err)
	return cat
}

func newTestServer(t *testing.T, chat ChatService, cfg Config, opts ...Option) *httptest.Server {
	t.Helper()
	auth := NewStaticTokenAuthenticator(map[string]string{"good-token": "recruiter-1"})
	srv, err := New(cfg, newCatalog(t), chat, auth, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ts := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeError(t *testing.T, raw []byte) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body.Error
}

func TestAgentConfigHasNameForEveryContext(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &fakeChat{}, Config{})

	for _, agentCtx := range contractx.AllContexts() {
		resp, raw := do(t, ts, http.MethodGet, "/api/agents/"+string(agentCtx), "", "")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

		var info contractx.AgentInfo
		require.NoError(t, json.Unmarshal(raw, &info))
		assert.Equal(t, agentCtx, info.Context)
		assert.NotEmpty(t, strings.TrimSpace(info.Name), "context %s", agentCtx)
	}

	resp, raw := do(t, ts, http.MethodGet, "/api/agents", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []contractx.AgentInfo
	require.NoError(t, json.Unmarshal(raw, &all))
	assert.Len(t, all, len(contractx.AllContexts()))
}

func TestAgentConfigUnknownContext(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &fakeChat{}, Config{})

	resp, raw := do(t, ts, http.MethodGet, "/api/agents/marketing", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	detail := decodeError(t, raw)
	assert.Equal(t, CodeUnknownContext, detail.Code)
	assert.Equal(t, FallbackMessage, detail.Message)
}

func TestSuggestionsAreStable(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &fakeChat{}, Config{})

	_, first := do(t, ts, http.MethodGet, "/api/agents/jobs/suggestions", "", "")
	_, second := do(t, ts, http.MethodGet, "/api/agents/jobs/suggestions", "", "")
	assert.JSONEq(t, string(first), string(second))

	var questions []string
	require.NoError(t, json.Unmarshal(first, &questions))
	assert.NotEmpty(t, questions)
}

func TestChatRequiresAuthentication(t *testing.T) {
	t.Parallel()
	chat := &fakeChat{}
	ts := newTestServer(t, chat, Config{})

	body := `{"messages":[{"role":"user","content":"Olá"}]}`
	for _, token := range []string{"", "bad-token"} {
		resp, raw := do(t, ts, http.MethodPost, "/api/agents/jobs/chat", token, body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, CodeUnauthenticated, decodeError(t, raw).Code)
	}
	assert.Empty(t, chat.reqs)
}

func TestChatDirectAnswerWireFormat(t *testing.T) {
	t.Parallel()
	chat := &fakeChat{resp: contractx.ChatResponse{Message: "Há 3 vagas abertas."}}
	ts := newTestServer(t, chat, Config{})

	resp, raw := do(t, ts, http.MethodPost, "/api/agents/jobs/chat", "good-token",
		`{"messages":[{"role":"user","content":"Quantas vagas?"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.JSONEq(t, `{"message":"Há 3 vagas abertas.","toolCalled":null,"toolResult":null}`, string(raw))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	require.Len(t, chat.reqs, 1)
	req := chat.reqs[0]
	assert.Equal(t, contractx.ContextJobs, req.Context)
	require.NotNil(t, req.Caller)
	assert.Equal(t, "recruiter-1", req.Caller.UserID)
}

func TestChatToolResultWireFormat(t *testing.T) {
	t.Parallel()
	name := "get_candidate_stats"
	chat := &fakeChat{resp: contractx.ChatResponse{
		Message:    "5 candidatos, 3 ativos.",
		ToolCalled: &name,
		ToolResult: json.RawMessage(`{"stats":{"total":5,"active":3}}`),
	}}
	ts := newTestServer(t, chat, Config{})

	_, raw := do(t, ts, http.MethodPost, "/api/agents/candidates/chat", "good-token",
		`{"messages":[{"role":"user","content":"Estatísticas?"}]}`)
	assert.Contains(t, string(raw), `"toolResult":{"stats":{"total":5,"active":3}}`)
	assert.Contains(t, string(raw), `"toolCalled":"get_candidate_stats"`)
}

func TestChatErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid message", fmt.Errorf("%w: empty", contractx.ErrInvalidMessage), http.StatusBadRequest, CodeInvalidRequest},
		{"unknown tool", fmt.Errorf("%w: delete_everything", contractx.ErrToolNotFound), http.StatusUnprocessableEntity, CodeToolError},
		{"bad args", fmt.Errorf("%w: city", contractx.ErrToolArguments), http.StatusUnprocessableEntity, CodeToolError},
		{"model", fmt.Errorf("%w: round=first: 503", contractx.ErrModelInvoke), http.StatusBadGateway, CodeModelError},
		{"model timeout", fmt.Errorf("%w: round=first: %w", contractx.ErrModelInvoke, context.DeadlineExceeded), http.StatusGatewayTimeout, CodeTimeout},
		{"tool failure", fmt.Errorf("%w: tool=x: boom", contractx.ErrToolExecution), http.StatusInternalServerError, CodeToolExecution},
		{"conflict", fmt.Errorf("%w: tool=x: %w", contractx.ErrToolExecution, datastore.ErrStatusConflict), http.StatusConflict, CodeConflict},
		{"forbidden", fmt.Errorf("%w: tool=x: %w", contractx.ErrToolExecution, contractx.ErrUnauthorized), http.StatusForbidden, CodeForbidden},
		{"unknown", errors.New("???"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, &fakeChat{err: tc.err}, Config{})
			resp, raw := do(t, ts, http.MethodPost, "/api/agents/jobs/chat", "good-token",
				`{"messages":[{"role":"user","content":"x"}]}`)
			assert.Equal(t, tc.status, resp.StatusCode)
			detail := decodeError(t, raw)
			assert.Equal(t, tc.code, detail.Code)
			assert.Equal(t, FallbackMessage, detail.Message)
			assert.NotContains(t, string(raw), tc.err.Error())
		})
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	t.Parallel()
	chat := &fakeChat{}
	ts := newTestServer(t, chat, Config{})

	for _, body := range []string{`{"messages":`, `{"messages":[],"extra":1}`} {
		resp, raw := do(t, ts, http.MethodPost, "/api/agents/jobs/chat", "good-token", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, CodeInvalidRequest, decodeError(t, raw).Code)
	}
	assert.Empty(t, chat.reqs)
}

func TestChatUnknownContextRejectedBeforeService(t *testing.T) {
	t.Parallel()
	chat := &fakeChat{}
	ts := newTestServer(t, chat, Config{})

	resp, _ := do(t, ts, http.MethodPost, "/api/agents/marketing/chat", "good-token",
		`{"messages":[{"role":"user","content":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, chat.reqs)
}

func TestChatRateLimitedPerCaller(t *testing.T) {
	t.Parallel()
	chat := &fakeChat{resp: contractx.ChatResponse{Message: "ok"}}
	ts := newTestServer(t, chat, Config{RateLimitPerMinute: 1, RateLimitBurst: 2})

	body := `{"messages":[{"role":"user","content":"x"}]}`
	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, _ := do(t, ts, http.MethodPost, "/api/agents/jobs/chat", "good-token", body)
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestConversationTranscriptIsScopedToCaller(t *testing.T) {
	t.Parallel()
	store := &memoryStore{}
	chat := &fakeChat{resp: contractx.ChatResponse{Message: "Olá!"}}
	ts := newTestServer(t, chat, Config{}, WithConversationStore(store))

	resp, _ := do(t, ts, http.MethodPost, "/api/agents/jobs/chat", "good-token",
		`{"messages":[{"role":"user","content":"Oi"}],"conversationId":"conv-9"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := store.Read(context.Background(), "recruiter-1:conv-9")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, contractx.RoleUser, stored[0].Role)
	assert.Equal(t, "Olá!", stored[1].Content)

	resp, raw := do(t, ts, http.MethodGet, "/api/conversations/conv-9", "good-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var transcript []contractx.ConversationMessage
	require.NoError(t, json.Unmarshal(raw, &transcript))
	assert.Len(t, transcript, 2)
}

func TestPanicIsRecovered(t *testing.T) {
	t.Parallel()
	handler := requestID(recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternal, decodeError(t, rec.Body.Bytes()).Code)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &fakeChat{}, Config{})
	resp, raw := do(t, ts, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, CodeNotFound, decodeError(t, raw).Code)
}
