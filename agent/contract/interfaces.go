package contract

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"
)

type Tool interface {
	Definition() ToolDefinition
	Validate(args map[string]any) error
	Execute(ctx context.Context, args map[string]any, caller *Caller) (any, error)
}

type ToolRegistry interface {
	Resolve(name string) (Tool, error)
}

type Catalog interface {
	Lookup(agentCtx AgentContext) (AgentDefinition, error)
}

// Agent is an AgentDefinition bound to its models. ToolModel is nil when
// the agent declares no tools.
type Agent struct {
	Definition AgentDefinition
	ToolModel  einomodel.BaseChatModel
	ChatModel  einomodel.BaseChatModel
}

type AgentRegistry interface {
	Agent(agentCtx AgentContext) (Agent, error)
}

type ConversationStore interface {
	Append(ctx context.Context, conversationID string, msgs ...ConversationMessage) error
	Read(ctx context.Context, conversationID string) ([]ConversationMessage, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event ToolEvent) error
}
