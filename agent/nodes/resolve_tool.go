package orchestratornode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

// ResolveTool picks the first requested call; later calls are ignored.
// The tool must exist globally and belong to the active agent.
func ResolveTool(in *GraphState, tools contractx.ToolRegistry) (*GraphState, error) {
	if !HasToolCall(in) {
		return nil, fmt.Errorf("%w: no tool call to resolve", contractx.ErrValidation)
	}
	call := in.First.ToolCalls[0]
	name := strings.TrimSpace(call.Function.Name)
	call.Function.Name = name

	t, err := tools.Resolve(name)
	if err != nil {
		return nil, err
	}
	if !in.Agent.Definition.HasTool(name) {
		return nil, fmt.Errorf("%w: tool=%s is not available for agent=%s", contractx.ErrToolNotFound, name, in.Agent.Definition.Context)
	}

	args, err := parseArguments(call.Function.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolArguments, name, err)
	}
	if err := t.Validate(args); err != nil {
		return nil, err
	}

	if strings.TrimSpace(call.ID) == "" {
		call.ID = "call_" + ulid.Make().String()
	}
	if call.Type == "" {
		call.Type = "function"
	}

	in.Call = &call
	in.Tool = t
	in.Args = args
	return in, nil
}

func parseArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
