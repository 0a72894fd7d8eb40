package orchestratornode

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	tracerx "github.com/tanpawarit/talent-assistant/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
)

// FirstModelCall uses the tool-bound model when the agent declares tools.
func FirstModelCall(ctx context.Context, in *GraphState, timeout time.Duration) (*GraphState, error) {
	m := in.Agent.ToolModel
	if m == nil {
		m = in.Agent.ChatModel
	}
	msg, err := callModel(ctx, m, in.Prompt, timeout, "first", in.Agent.Definition.Context)
	if err != nil {
		return nil, err
	}
	if len(msg.ToolCalls) == 0 && strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("%w: model returned neither content nor tool call", contractx.ErrModelInvoke)
	}
	in.First = msg
	return in, nil
}

// HasToolCall decides the branch after the first model call.
func HasToolCall(in *GraphState) bool {
	return in != nil && in.First != nil && len(in.First.ToolCalls) > 0
}

// SecondModelCall replays the tool exchange to the plain model so the
// answer cannot request another tool.
func SecondModelCall(ctx context.Context, in *GraphState, timeout time.Duration) (*GraphState, error) {
	if in.Call == nil {
		return nil, fmt.Errorf("%w: no resolved tool call", contractx.ErrValidation)
	}
	msgs := make([]*schema.Message, 0, len(in.Prompt)+2)
	msgs = append(msgs, in.Prompt...)
	msgs = append(msgs,
		&schema.Message{
			Role:      schema.Assistant,
			Content:   in.First.Content,
			ToolCalls: []schema.ToolCall{*in.Call},
		},
		schema.ToolMessage(in.ResultJSON, in.Call.ID),
	)

	msg, err := callModel(ctx, in.Agent.ChatModel, msgs, timeout, "second", in.Agent.Definition.Context)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("%w: model returned an empty answer after tool=%s", contractx.ErrModelInvoke, in.Call.Function.Name)
	}
	in.Final = msg
	return in, nil
}

func callModel(
	ctx context.Context,
	m einomodel.BaseChatModel,
	msgs []*schema.Message,
	timeout time.Duration,
	round string,
	agentCtx contractx.AgentContext,
) (msg *schema.Message, err error) {
	if m == nil {
		return nil, fmt.Errorf("%w: agent=%s has no model", contractx.ErrModelInvoke, agentCtx)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, span := tracerx.StartSpan(ctx, "agent.model_call",
		attribute.String("context", string(agentCtx)),
		attribute.String("round", round),
		attribute.Int("messages", len(msgs)),
	)
	defer func() { tracerx.End(span, err) }()

	started := time.Now()
	msg, err = m.Generate(ctx, msgs)
	logger := zerolog.Ctx(ctx).With().
		Str("context", string(agentCtx)).
		Str("round", round).
		Dur("elapsed", time.Since(started)).
		Logger()
	if err != nil {
		logger.Error().Err(err).Msg("model call failed")
		return nil, fmt.Errorf("%w: round=%s: %w", contractx.ErrModelInvoke, round, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: round=%s: empty response", contractx.ErrModelInvoke, round)
	}
	logger.Debug().Int("tool_calls", len(msg.ToolCalls)).Msg("model call finished")
	return msg, nil
}
