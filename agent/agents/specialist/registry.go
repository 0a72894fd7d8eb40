package specialist

import (
	"context"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/agent/tool"
)

// ModelFactory builds the chat model that serves one agent context.
type ModelFactory interface {
	New(ctx context.Context, agentCtx contractx.AgentContext) (einomodel.ToolCallingChatModel, error)
}

// Registry binds every catalog entry to its models once at startup.
type Registry struct {
	agents map[contractx.AgentContext]contractx.Agent
}

var _ contractx.AgentRegistry = (*Registry)(nil)

func NewRegistry(ctx context.Context, catalog contractx.Catalog, models ModelFactory) (*Registry, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if models == nil {
		return nil, errors.New("model factory is required")
	}

	r := &Registry{agents: make(map[contractx.AgentContext]contractx.Agent)}
	for _, agentCtx := range contractx.AllContexts() {
		def, err := catalog.Lookup(agentCtx)
		if err != nil {
			return nil, err
		}
		agent, err := bind(ctx, def, models)
		if err != nil {
			return nil, err
		}
		r.agents[agentCtx] = agent
	}
	return r, nil
}

func bind(ctx context.Context, def contractx.AgentDefinition, models ModelFactory) (contractx.Agent, error) {
	chatModel, err := models.New(ctx, def.Context)
	if err != nil {
		return contractx.Agent{}, fmt.Errorf("create model for agent=%s: %w", def.Context, err)
	}

	agent := contractx.Agent{Definition: def, ChatModel: chatModel}
	if len(def.Tools) == 0 {
		return agent, nil
	}

	toolModel, err := chatModel.WithTools(tool.ToolInfos(def.Tools))
	if err != nil {
		return contractx.Agent{}, fmt.Errorf("bind tools for agent=%s: %w", def.Context, err)
	}
	agent.ToolModel = toolModel
	return agent, nil
}

func (r *Registry) Agent(agentCtx contractx.AgentContext) (contractx.Agent, error) {
	agent, ok := r.agents[agentCtx]
	if !ok {
		return contractx.Agent{}, fmt.Errorf("%w: %q", contractx.ErrUnknownContext, agentCtx)
	}
	return agent, nil
}
