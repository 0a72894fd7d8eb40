package orchestratornode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	tracerx "github.com/tanpawarit/talent-assistant/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
)

type toolOutcome struct {
	result any
	err    error
}

// ExecuteTool runs the resolved tool under timeout and serializes its result
// into the exact string the second model call will receive.
func ExecuteTool(ctx context.Context, in *GraphState, timeout time.Duration) (_ *GraphState, err error) {
	if in.Tool == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: no resolved tool", contractx.ErrValidation)
	}
	name := in.Call.Function.Name

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ctx, span := tracerx.StartSpan(ctx, "agent.tool_execute",
		attribute.String("tool", name),
		attribute.String("context", string(in.Agent.Definition.Context)),
	)
	defer func() { tracerx.End(span, err) }()

	logger := zerolog.Ctx(ctx).With().Str("tool", name).Logger()
	started := time.Now()

	// The handler runs on its own goroutine so a handler that ignores ctx
	// still cannot hold the turn past the deadline.
	done := make(chan toolOutcome, 1)
	go func() {
		result, err := in.Tool.Execute(ctx, in.Args, in.Request.Caller)
		done <- toolOutcome{result: result, err: err}
	}()

	var out toolOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = toolOutcome{err: ctx.Err()}
	}
	if out.err != nil {
		logger.Error().Err(out.err).Dur("elapsed", time.Since(started)).Msg("tool execution failed")
		return nil, fmt.Errorf("%w: tool=%s: %w", contractx.ErrToolExecution, name, out.err)
	}

	raw, err := json.Marshal(out.result)
	if err != nil {
		return nil, fmt.Errorf("%w: tool=%s: encode result: %w", contractx.ErrToolExecution, name, err)
	}
	logger.Info().Dur("elapsed", time.Since(started)).Int("result_bytes", len(raw)).Msg("tool executed")

	in.ResultJSON = string(raw)
	return in, nil
}
