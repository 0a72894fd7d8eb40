package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	nodex "github.com/tanpawarit/talent-assistant/agent/nodes"
	tracerx "github.com/tanpawarit/talent-assistant/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultModelTimeout = 30 * time.Second
	defaultToolTimeout  = 10 * time.Second
)

type Config struct {
	ModelTimeout time.Duration `split_words:"true" default:"30s"`
	ToolTimeout  time.Duration `split_words:"true" default:"10s"`
}

// Orchestrator runs one chat turn: at most two model calls and one tool.
// It holds no per-conversation state.
type Orchestrator struct {
	agents contractx.AgentRegistry
	tools  contractx.ToolRegistry

	modelTimeout time.Duration
	toolTimeout  time.Duration

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

func New(agents contractx.AgentRegistry, tools contractx.ToolRegistry, cfg Config) (*Orchestrator, error) {
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool registry is required")
	}

	o := &Orchestrator{
		agents:       agents,
		tools:        tools,
		modelTimeout: cfg.ModelTimeout,
		toolTimeout:  cfg.ToolTimeout,
	}
	if o.modelTimeout <= 0 {
		o.modelTimeout = defaultModelTimeout
	}
	if o.toolTimeout <= 0 {
		o.toolTimeout = defaultToolTimeout
	}

	graphRunner, err := o.compileChatGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner
	return o, nil
}

func (o *Orchestrator) Chat(ctx context.Context, req contractx.ChatRequest) (_ contractx.ChatResponse, err error) {
	ctx, span := tracerx.StartSpan(ctx, "agent.chat",
		attribute.String("context", string(req.Context)),
		attribute.Int("messages", len(req.Messages)),
	)
	defer func() { tracerx.End(span, err) }()

	logger := zerolog.Ctx(ctx).With().Str("context", string(req.Context)).Logger()
	ctx = logger.WithContext(ctx)

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Request: req})
	if err != nil {
		logger.Warn().Err(err).Msg("chat turn failed")
		return contractx.ChatResponse{}, err
	}
	if out.Response.ToolCalled != nil {
		logger.Info().Str("tool", *out.Response.ToolCalled).Msg("chat turn answered with tool")
	}
	return out.Response, nil
}
