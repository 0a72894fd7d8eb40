package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

// Factory builds one breaker-wrapped chat model per agent context.
type Factory struct {
	cfg     Config
	schemas SchemaSource
}

func NewFactory(cfg Config, schemas SchemaSource) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Factory{cfg: cfg, schemas: schemas}, nil
}

func (f *Factory) New(ctx context.Context, agentCtx contractx.AgentContext) (einomodel.ToolCallingChatModel, error) {
	modelName := f.cfg.ModelFor(agentCtx)

	var (
		inner einomodel.ToolCallingChatModel
		err   error
	)
	switch f.cfg.driver() {
	case DriverOpenRouter:
		inner, err = f.cfg.OpenRouterFor(agentCtx).New(ctx)
	case DriverOpenAI:
		inner = NewOpenAIModel(f.openAIClient(), OpenAIOptions{
			Model:               modelName,
			Temperature:         float64(f.cfg.Temperature),
			MaxCompletionTokens: int64(f.cfg.MaxCompletionToken),
		}, f.schemas)
	case DriverAnthropic:
		inner = NewAnthropicModel(f.anthropicClient(), AnthropicOptions{
			Model:       modelName,
			Temperature: float64(f.cfg.Temperature),
			MaxTokens:   int64(f.cfg.MaxCompletionToken),
		}, f.schemas)
	default:
		err = fmt.Errorf("%w: unknown llm driver %q", contractx.ErrValidation, f.cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("build model for %s: %w", agentCtx, err)
	}

	return NewBreakerModel(string(agentCtx)+":"+modelName, inner, BreakerSettings{
		MaxFailures: f.cfg.BreakerMaxFailures,
		Timeout:     f.cfg.BreakerTimeout,
		Interval:    f.cfg.BreakerInterval,
	}), nil
}

func (f *Factory) openAIClient() *openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(f.cfg.APIKey)),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(f.cfg.Timeout),
	}
	if base := strings.TrimRight(strings.TrimSpace(f.cfg.BaseURL), "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	client := openai.NewClient(opts...)
	return &client
}

func (f *Factory) anthropicClient() *anthropic.Client {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(strings.TrimSpace(f.cfg.APIKey)),
		anthropicoption.WithMaxRetries(0),
		anthropicoption.WithRequestTimeout(f.cfg.Timeout),
	}
	if base := strings.TrimRight(strings.TrimSpace(f.cfg.BaseURL), "/"); base != "" {
		opts = append(opts, anthropicoption.WithBaseURL(base))
	}
	client := anthropic.NewClient(opts...)
	return &client
}
