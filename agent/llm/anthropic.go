package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type AnthropicOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

// AnthropicModel adapts the Messages API to eino's ToolCallingChatModel.
type AnthropicModel struct {
	client  *anthropic.Client
	opts    AnthropicOptions
	schemas SchemaSource
	tools   []anthropic.ToolUnionParam
}

var _ einomodel.ToolCallingChatModel = (*AnthropicModel)(nil)

func NewAnthropicModel(client *anthropic.Client, opts AnthropicOptions, schemas SchemaSource) *AnthropicModel {
	return &AnthropicModel{client: client, opts: opts, schemas: schemas}
}

func (m *AnthropicModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, info := range tools {
		if info == nil {
			continue
		}
		params = append(params, m.toolParam(info.Name, info.Desc))
	}
	clone := *m
	clone.tools = params
	return &clone, nil
}

func (m *AnthropicModel) toolParam(name, desc string) anthropic.ToolUnionParam {
	js := toolParameters(m.schemas, name)
	input := anthropic.ToolInputSchemaParam{
		Type:       constant.Object("object"),
		Properties: js["properties"],
	}
	if required, ok := js["required"].([]string); ok {
		input.Required = required
	}
	union := anthropic.ToolUnionParamOfTool(input, name)
	if union.OfTool != nil && desc != "" {
		union.OfTool.Description = anthropic.String(desc)
	}
	return union
}

// historyTools declares the tools already used in the history. The Messages
// API refuses tool_use and tool_result blocks without matching definitions.
func (m *AnthropicModel) historyTools(input []*schema.Message) []anthropic.ToolUnionParam {
	seen := map[string]bool{}
	for _, t := range m.tools {
		if t.OfTool != nil {
			seen[t.OfTool.Name] = true
		}
	}
	var params []anthropic.ToolUnionParam
	for _, msg := range input {
		if msg == nil || msg.Role != schema.Assistant {
			continue
		}
		for _, tc := range msg.ToolCalls {
			name := tc.Function.Name
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			params = append(params, m.toolParam(name, ""))
		}
	}
	return params
}

func (m *AnthropicModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	temperature := float32(m.opts.Temperature)
	maxTokens := int(m.opts.MaxTokens)
	modelName := m.opts.Model
	common := einomodel.GetCommonOptions(&einomodel.Options{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Model:       &modelName,
	}, opts...)

	system, messages := anthropicMessages(input)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(*common.Model),
		Messages:    messages,
		MaxTokens:   int64(*common.MaxTokens),
		Temperature: anthropic.Float(float64(*common.Temperature)),
	}
	if len(system) > 0 {
		params.System = system
	}
	used := m.historyTools(input)
	if len(m.tools) > 0 {
		params.Tools = append(append([]anthropic.ToolUnionParam{}, m.tools...), used...)
	} else if len(used) > 0 {
		// An unbound model answering after a tool exchange must not call again.
		params.Tools = used
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	out := &schema.Message{Role: schema.Assistant}
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			use := block.AsToolUse()
			args, err := json.Marshal(use.Input)
			if err != nil {
				return nil, fmt.Errorf("anthropic: encode tool input: %w", err)
			}
			out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
				ID:   use.ID,
				Type: "function",
				Function: schema.FunctionCall{
					Name:      use.Name,
					Arguments: string(args),
				},
			})
		}
	}
	out.Content = text.String()
	return out, nil
}

func (m *AnthropicModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// anthropicMessages splits system text out of the history. Tool results
// travel as tool_result blocks inside a user turn.
func anthropicMessages(input []*schema.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			if msg.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			}
		case schema.Tool:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		case schema.Assistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any = map[string]any{}
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
						input = map[string]any{}
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			if msg.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	return system, messages
}
