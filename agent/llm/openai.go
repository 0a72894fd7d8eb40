package llm

import (
	"context"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
)

// SchemaSource returns the JSON Schema of a tool's arguments by tool name.
type SchemaSource func(name string) (map[string]any, bool)

type OpenAIOptions struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// OpenAIModel adapts the Chat Completions API to eino's ToolCallingChatModel.
type OpenAIModel struct {
	client  *openai.Client
	opts    OpenAIOptions
	schemas SchemaSource
	tools   []openai.ChatCompletionToolParam
}

var _ einomodel.ToolCallingChatModel = (*OpenAIModel)(nil)

func NewOpenAIModel(client *openai.Client, opts OpenAIOptions, schemas SchemaSource) *OpenAIModel {
	return &OpenAIModel{client: client, opts: opts, schemas: schemas}
}

func (m *OpenAIModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	params := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, info := range tools {
		if info == nil {
			continue
		}
		params = append(params, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        info.Name,
				Description: openai.String(info.Desc),
				Parameters:  toolParameters(m.schemas, info.Name),
			},
		})
	}
	clone := *m
	clone.tools = params
	return &clone, nil
}

func (m *OpenAIModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	params := m.params(input, opts...)
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choices returned")
	}

	choice := resp.Choices[0].Message
	out := &schema.Message{Role: schema.Assistant, Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out, nil
}

func (m *OpenAIModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *OpenAIModel) params(input []*schema.Message, opts ...einomodel.Option) openai.ChatCompletionNewParams {
	temperature := float32(m.opts.Temperature)
	maxTokens := int(m.opts.MaxCompletionTokens)
	modelName := m.opts.Model
	common := einomodel.GetCommonOptions(&einomodel.Options{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Model:       &modelName,
	}, opts...)

	params := openai.ChatCompletionNewParams{
		Messages:            openAIMessages(input),
		Model:               *common.Model,
		Temperature:         openai.Float(float64(*common.Temperature)),
		MaxCompletionTokens: openai.Int(int64(*common.MaxTokens)),
	}
	if len(m.tools) > 0 {
		params.Tools = m.tools
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
	}
	return params
}

func openAIMessages(input []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openai.SystemMessage(msg.Content))
		case schema.Tool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case schema.Assistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				calls = append(calls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: calls,
			}})
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func toolParameters(schemas SchemaSource, name string) map[string]any {
	if schemas != nil {
		if s, ok := schemas(name); ok {
			return s
		}
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
