package orchestratornode

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

type GraphInput struct {
	Request contractx.ChatRequest
}

type GraphOutput struct {
	Response contractx.ChatResponse
}

// GraphState is threaded through every node of one chat turn.
type GraphState struct {
	Request contractx.ChatRequest
	Agent   contractx.Agent

	Prompt []*schema.Message
	First  *schema.Message

	Call       *schema.ToolCall
	Tool       contractx.Tool
	Args       map[string]any
	ResultJSON string

	Final *schema.Message
}

// ValidateRequest resolves the agent before anything talks to a model.
func ValidateRequest(in GraphInput, agents contractx.AgentRegistry) (*GraphState, error) {
	agent, err := agents.Agent(in.Request.Context)
	if err != nil {
		return nil, err
	}
	if err := validateHistory(in.Request.Messages); err != nil {
		return nil, err
	}
	return &GraphState{Request: in.Request, Agent: agent}, nil
}

// validateHistory accepts tool exchanges from earlier turns only when every
// assistant tool call is answered by a tool message before the next turn.
func validateHistory(msgs []contractx.ConversationMessage) error {
	if len(msgs) == 0 {
		return fmt.Errorf("%w: history is empty", contractx.ErrInvalidMessage)
	}
	hasUser := false
	pending := map[string]bool{}
	for i, m := range msgs {
		if m.Role != contractx.RoleTool && len(pending) > 0 {
			return fmt.Errorf("%w: message %d follows unanswered tool calls", contractx.ErrInvalidMessage, i)
		}
		switch m.Role {
		case contractx.RoleUser:
			if strings.TrimSpace(m.Content) != "" {
				hasUser = true
			}
		case contractx.RoleSystem:
		case contractx.RoleAssistant:
			for _, tc := range m.ToolCalls {
				if strings.TrimSpace(tc.ID) == "" || strings.TrimSpace(tc.Name) == "" {
					return fmt.Errorf("%w: message %d has a tool call without id or name", contractx.ErrInvalidMessage, i)
				}
				pending[tc.ID] = true
			}
		case contractx.RoleTool:
			if !pending[m.ToolCallID] {
				return fmt.Errorf("%w: message %d answers unknown tool call %q", contractx.ErrInvalidMessage, i, m.ToolCallID)
			}
			delete(pending, m.ToolCallID)
		default:
			return fmt.Errorf("%w: message %d has role %q", contractx.ErrInvalidMessage, i, m.Role)
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("%w: history ends with unanswered tool calls", contractx.ErrInvalidMessage)
	}
	if !hasUser {
		return fmt.Errorf("%w: no user message", contractx.ErrInvalidMessage)
	}
	return nil
}
