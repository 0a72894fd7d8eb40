package contract

import (
	"fmt"
	"strings"
	"time"
)

// AgentContext selects the agent persona and the tool subset for a turn.
type AgentContext string

const (
	ContextSchools      AgentContext = "schools"
	ContextCompanies    AgentContext = "companies"
	ContextJobs         AgentContext = "jobs"
	ContextCandidates   AgentContext = "candidates"
	ContextApplications AgentContext = "applications"
	ContextContracts    AgentContext = "contracts"
	ContextPayments     AgentContext = "payments"
	ContextFeedback     AgentContext = "feedback"
)

var allContexts = []AgentContext{
	ContextSchools,
	ContextCompanies,
	ContextJobs,
	ContextCandidates,
	ContextApplications,
	ContextContracts,
	ContextPayments,
	ContextFeedback,
}

// AllContexts returns every context in display order.
func AllContexts() []AgentContext {
	return append([]AgentContext(nil), allContexts...)
}

func (c AgentContext) Valid() bool {
	for _, known := range allContexts {
		if c == known {
			return true
		}
	}
	return false
}

func ParseAgentContext(raw string) (AgentContext, error) {
	c := AgentContext(strings.TrimSpace(raw))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContext, raw)
	}
	return c, nil
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ConversationMessage struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
}

type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeObject  ParameterType = "object"
	TypeArray   ParameterType = "array"
)

type ToolParameter struct {
	Name        string        `json:"name"`
	Type        ParameterType `json:"type"`
	Description string        `json:"description"`
	Required    bool          `json:"required"`
	Enum        []string      `json:"enum,omitempty"`
}

type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	Mutates     bool            `json:"mutates,omitempty"`
}

type AgentDefinition struct {
	Context      AgentContext     `json:"context"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	SystemPrompt string           `json:"-"`
	Tools        []ToolDefinition `json:"tools"`
	Capabilities []string         `json:"capabilities"`
	Examples     []string         `json:"examples"`
}

// HasTool reports whether name is part of this agent's tool list.
func (d AgentDefinition) HasTool(name string) bool {
	for _, t := range d.Tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

// AgentInfo is the public projection served by getAgentConfig.
type AgentInfo struct {
	Context      AgentContext `json:"context"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Capabilities []string     `json:"capabilities"`
	Examples     []string     `json:"examples"`
}

type Caller struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

type ChatRequest struct {
	Context        AgentContext          `json:"context"`
	Messages       []ConversationMessage `json:"messages"`
	Caller         *Caller               `json:"-"`
	ConversationID string                `json:"conversationId,omitempty"`
}

// ChatResponse serializes toolCalled and toolResult as null when no tool ran.
type ChatResponse struct {
	Message    string  `json:"message"`
	ToolCalled *string `json:"toolCalled"`
	ToolResult any     `json:"toolResult"`
}

// ToolEvent is published after a mutating tool succeeds.
type ToolEvent struct {
	ID         string         `json:"id"`
	Tool       string         `json:"tool"`
	Caller     *Caller        `json:"caller,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	Result     any            `json:"result,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
