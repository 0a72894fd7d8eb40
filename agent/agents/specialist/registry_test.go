package specialist

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

type fakeToolCallingModel struct {
	name      string
	boundWith []*schema.ToolInfo
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return &schema.Message{Role: schema.Assistant, Content: f.name}, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return &fakeToolCallingModel{name: f.name + "+tools", boundWith: tools}, nil
}

type fakeFactory struct {
	err   error
	calls []contractx.AgentContext
}

func (f *fakeFactory) New(ctx context.Context, agentCtx contractx.AgentContext) (einomodel.ToolCallingChatModel, error) {
	f.calls = append(f.calls, agentCtx)
	if f.err != nil {
		return nil, f.err
	}
	return &fakeToolCallingModel{name: string(agentCtx)}, nil
}

type fakeCatalog struct{}

func (fakeCatalog) Lookup(agentCtx contractx.AgentContext) (contractx.AgentDefinition, error) {
	if !agentCtx.Valid() {
		return contractx.AgentDefinition{}, contractx.ErrUnknownContext
	}
	def := contractx.AgentDefinition{Context: agentCtx, Name: string(agentCtx)}
	// feedback is left without tools.
	if agentCtx != contractx.ContextFeedback {
		def.Tools = []contractx.ToolDefinition{{Name: "search_" + string(agentCtx)}}
	}
	return def, nil
}

func TestNewRegistryBindsEveryContext(t *testing.T) {
	t.Parallel()

	factory := &fakeFactory{}
	reg, err := NewRegistry(context.Background(), fakeCatalog{}, factory)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if len(factory.calls) != len(contractx.AllContexts()) {
		t.Fatalf("expected one model per context, got %d", len(factory.calls))
	}

	jobs, err := reg.Agent(contractx.ContextJobs)
	if err != nil {
		t.Fatalf("Agent(jobs) error = %v", err)
	}
	bound, ok := jobs.ToolModel.(*fakeToolCallingModel)
	if !ok || len(bound.boundWith) != 1 || bound.boundWith[0].Name != "search_jobs" {
		t.Fatalf("unexpected tool model: %#v", jobs.ToolModel)
	}
	if jobs.ChatModel == nil {
		t.Fatal("chat model must be set")
	}

	feedback, err := reg.Agent(contractx.ContextFeedback)
	if err != nil {
		t.Fatalf("Agent(feedback) error = %v", err)
	}
	if feedback.ToolModel != nil {
		t.Fatalf("agent without tools must not get a tool model, got %#v", feedback.ToolModel)
	}
}

func TestRegistryUnknownContext(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(context.Background(), fakeCatalog{}, &fakeFactory{})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if _, err := reg.Agent("marketing"); !errors.Is(err, contractx.ErrUnknownContext) {
		t.Fatalf("expected ErrUnknownContext, got %v", err)
	}
}

func TestNewRegistryPropagatesFactoryError(t *testing.T) {
	t.Parallel()

	boom := errors.New("no api key")
	if _, err := NewRegistry(context.Background(), fakeCatalog{}, &fakeFactory{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}
