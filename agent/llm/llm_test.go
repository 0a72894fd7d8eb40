package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

func candidateSchema(name string) (map[string]any, bool) {
	if name != "search_candidates" {
		return nil, false
	}
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"city": map[string]any{"type": "string"}},
		"additionalProperties": false,
	}, true
}

var searchCandidatesInfo = &schema.ToolInfo{Name: "search_candidates", Desc: "Search candidates"}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	base := Config{Driver: "openrouter", APIKey: "k", Model: "m"}
	require.NoError(t, base.Validate())

	tests := map[string]Config{
		"driver":  {Driver: "gemini", APIKey: "k", Model: "m"},
		"api key": {Driver: "openai", Model: "m"},
		"model":   {Driver: "anthropic", APIKey: "k"},
		"context": {APIKey: "k", Model: "m", ContextModels: map[string]string{"marketing": "x"}},
	}
	for name, cfg := range tests {
		assert.ErrorIs(t, cfg.Validate(), contractx.ErrValidation, name)
	}
}

func TestModelForUsesContextOverride(t *testing.T) {
	t.Parallel()

	cfg := Config{Model: "default-model", ContextModels: map[string]string{"jobs": "jobs-model"}}
	assert.Equal(t, "jobs-model", cfg.ModelFor(contractx.ContextJobs))
	assert.Equal(t, "default-model", cfg.ModelFor(contractx.ContextPayments))
	assert.Equal(t, "jobs-model", cfg.OpenRouterFor(contractx.ContextJobs).Model)
}

func TestOpenAIModelSendsToolsAndParsesToolCall(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"search_candidates","arguments":"{\"city\":\"São Paulo\"}"}}]}}]}`))
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithAPIKey("test"), option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	m := NewOpenAIModel(&client, OpenAIOptions{Model: "m", Temperature: 0.2, MaxCompletionTokens: 100}, candidateSchema)
	bound, err := m.WithTools([]*schema.ToolInfo{searchCandidatesInfo})
	require.NoError(t, err)

	out, err := bound.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("Você é o assistente de Candidatos."),
		schema.UserMessage("Candidatos em São Paulo?"),
	})
	require.NoError(t, err)
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "call_1", out.ToolCalls[0].ID)
	assert.Equal(t, "search_candidates", out.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"city":"São Paulo"}`, out.ToolCalls[0].Function.Arguments)

	assert.Equal(t, "auto", body["tool_choice"])
	tools, _ := body["tools"].([]any)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "search_candidates", fn["name"])
	assert.Equal(t, false, fn["parameters"].(map[string]any)["additionalProperties"])
	messages, _ := body["messages"].([]any)
	assert.Len(t, messages, 2)
}

func TestOpenAIModelWithoutToolsSendsNoToolChoice(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-2","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Encontrei 1 candidata."}}]}`))
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithAPIKey("test"), option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	m := NewOpenAIModel(&client, OpenAIOptions{Model: "m", MaxCompletionTokens: 100}, nil)

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.UserMessage("Candidatos em São Paulo?"),
		{Role: schema.Assistant, ToolCalls: []schema.ToolCall{{ID: "call_1", Function: schema.FunctionCall{Name: "search_candidates", Arguments: `{}`}}}},
		schema.ToolMessage(`[{"id":"c1"}]`, "call_1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Encontrei 1 candidata.", out.Content)
	assert.NotContains(t, body, "tools")
	assert.NotContains(t, body, "tool_choice")

	messages, _ := body["messages"].([]any)
	require.Len(t, messages, 3)
	toolMsg := messages[2].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_1", toolMsg["tool_call_id"])
}

func TestAnthropicModelMapsSystemAndToolResult(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude",
			"content":[{"type":"text","text":"Há 5 contratos."}],
			"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	client := anthropic.NewClient(anthropicoption.WithAPIKey("test"), anthropicoption.WithBaseURL(srv.URL), anthropicoption.WithMaxRetries(0))
	m := NewAnthropicModel(&client, AnthropicOptions{Model: "claude", MaxTokens: 256}, candidateSchema)
	bound, err := m.WithTools([]*schema.ToolInfo{searchCandidatesInfo})
	require.NoError(t, err)

	out, err := bound.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("Você é o assistente de Contratos."),
		schema.UserMessage("Quantos contratos?"),
		{Role: schema.Assistant, ToolCalls: []schema.ToolCall{{ID: "toolu_1", Function: schema.FunctionCall{Name: "get_contract_stats", Arguments: `{}`}}}},
		schema.ToolMessage(`{"total":5}`, "toolu_1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Há 5 contratos.", out.Content)
	assert.Empty(t, out.ToolCalls)

	system, _ := body["system"].([]any)
	require.Len(t, system, 1)
	messages, _ := body["messages"].([]any)
	require.Len(t, messages, 3)
	last := messages[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	block := last["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "tool_result", block["type"])
	assert.Equal(t, "toolu_1", block["tool_use_id"])

	tools, _ := body["tools"].([]any)
	require.Len(t, tools, 2)
	assert.Equal(t, "search_candidates", tools[0].(map[string]any)["name"])
	assert.Equal(t, "get_contract_stats", tools[1].(map[string]any)["name"])
	assert.NotContains(t, body, "tool_choice")
}

func TestAnthropicUnboundModelDeclaresHistoryToolsWithNoneChoice(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_3","type":"message","role":"assistant","model":"claude",
			"content":[{"type":"text","text":"Encontrei 2 candidatos."}],
			"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	client := anthropic.NewClient(anthropicoption.WithAPIKey("test"), anthropicoption.WithBaseURL(srv.URL), anthropicoption.WithMaxRetries(0))
	m := NewAnthropicModel(&client, AnthropicOptions{Model: "claude", MaxTokens: 256}, candidateSchema)

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.UserMessage("Candidatos em São Paulo?"),
		{Role: schema.Assistant, ToolCalls: []schema.ToolCall{{ID: "toolu_2", Function: schema.FunctionCall{Name: "search_candidates", Arguments: `{"city":"São Paulo"}`}}}},
		schema.ToolMessage(`[{"id":"c1"},{"id":"c2"}]`, "toolu_2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Encontrei 2 candidatos.", out.Content)

	tools, _ := body["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "search_candidates", tool["name"])
	props := tool["input_schema"].(map[string]any)["properties"].(map[string]any)
	assert.Contains(t, props, "city")

	choice, _ := body["tool_choice"].(map[string]any)
	require.NotNil(t, choice)
	assert.Equal(t, "none", choice["type"])
}

func TestAnthropicUnboundModelWithoutToolHistorySendsNoTools(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_4","type":"message","role":"assistant","model":"claude",
			"content":[{"type":"text","text":"Olá!"}],
			"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	client := anthropic.NewClient(anthropicoption.WithAPIKey("test"), anthropicoption.WithBaseURL(srv.URL), anthropicoption.WithMaxRetries(0))
	m := NewAnthropicModel(&client, AnthropicOptions{Model: "claude", MaxTokens: 256}, nil)

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("Oi")})
	require.NoError(t, err)
	assert.NotContains(t, body, "tools")
	assert.NotContains(t, body, "tool_choice")
}

func TestAnthropicModelParsesToolUse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","model":"claude",
			"content":[{"type":"tool_use","id":"toolu_9","name":"search_candidates","input":{"city":"São Paulo"}}],
			"stop_reason":"tool_use","usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	client := anthropic.NewClient(anthropicoption.WithAPIKey("test"), anthropicoption.WithBaseURL(srv.URL), anthropicoption.WithMaxRetries(0))
	m := NewAnthropicModel(&client, AnthropicOptions{Model: "claude", MaxTokens: 256}, candidateSchema)

	out, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("Candidatos em São Paulo?")})
	require.NoError(t, err)
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "toolu_9", out.ToolCalls[0].ID)
	assert.JSONEq(t, `{"city":"São Paulo"}`, out.ToolCalls[0].Function.Arguments)
}

type failingModel struct {
	calls int
	err   error
}

func (f *failingModel) Generate(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	return nil, f.err
}

func (f *failingModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	f.calls++
	return nil, f.err
}

func (f *failingModel) WithTools([]*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	inner := &failingModel{err: errors.New("upstream 503")}
	m := NewBreakerModel("test", inner, BreakerSettings{MaxFailures: 2})
	bound, err := m.WithTools([]*schema.ToolInfo{searchCandidatesInfo})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := m.Generate(context.Background(), nil)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, m.State())

	_, err = bound.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls, "open breaker must not reach the provider")
}

func TestBreakerIgnoresCanceledCalls(t *testing.T) {
	t.Parallel()

	inner := &failingModel{err: context.Canceled}
	m := NewBreakerModel("test", inner, BreakerSettings{MaxFailures: 1})
	_, err := m.Generate(context.Background(), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, m.State())
}

func TestFactoryBuildsBreakerPerDriver(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"openrouter", "openai", "anthropic"} {
		f, err := NewFactory(Config{Driver: driver, APIKey: "k", Model: "m", MaxCompletionToken: 100}, candidateSchema)
		require.NoError(t, err)
		m, err := f.New(context.Background(), contractx.ContextCandidates)
		require.NoError(t, err, driver)
		assert.IsType(t, &BreakerModel{}, m, driver)
	}
}
