package orchestratornode

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

// BuildPrompt puts the agent's system prompt in front of the caller's history.
func BuildPrompt(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	prompt := make([]*schema.Message, 0, len(in.Request.Messages)+1)
	prompt = append(prompt, schema.SystemMessage(in.Agent.Definition.SystemPrompt))
	for _, m := range in.Request.Messages {
		prompt = append(prompt, toSchemaMessage(m))
	}
	in.Prompt = prompt
	return in, nil
}

func toSchemaMessage(m contractx.ConversationMessage) *schema.Message {
	switch m.Role {
	case contractx.RoleSystem:
		return schema.SystemMessage(m.Content)
	case contractx.RoleAssistant:
		var calls []schema.ToolCall
		for _, tc := range m.ToolCalls {
			calls = append(calls, schema.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: schema.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		return schema.AssistantMessage(m.Content, calls)
	case contractx.RoleTool:
		return schema.ToolMessage(m.Content, m.ToolCallID)
	default:
		return schema.UserMessage(m.Content)
	}
}
