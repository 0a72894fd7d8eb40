package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	promptx "github.com/tanpawarit/talent-assistant/agent/prompt"
	"gopkg.in/yaml.v3"
)

//go:embed agents.yaml
var defaultAgents []byte

type entry struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Capabilities []string `yaml:"capabilities"`
	Examples     []string `yaml:"examples"`
	Tools        []string `yaml:"tools"`
}

// Catalog holds one AgentDefinition per context. It is read-only after New.
type Catalog struct {
	agents map[contractx.AgentContext]contractx.AgentDefinition
}

var _ contractx.Catalog = (*Catalog)(nil)

type Option func(*options)

type options struct {
	raw []byte
}

// WithDefinitions replaces the embedded agents.yaml.
func WithDefinitions(raw []byte) Option {
	return func(o *options) {
		o.raw = raw
	}
}

func New(prompts promptx.PromptSet, tools contractx.ToolRegistry, opts ...Option) (*Catalog, error) {
	if prompts == nil {
		return nil, errors.New("prompt set is required")
	}
	if tools == nil {
		return nil, errors.New("tool registry is required")
	}
	o := options{raw: defaultAgents}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	entries, err := parse(o.raw)
	if err != nil {
		return nil, err
	}

	c := &Catalog{agents: make(map[contractx.AgentContext]contractx.AgentDefinition, len(entries))}
	for _, agentCtx := range contractx.AllContexts() {
		e, ok := entries[agentCtx]
		if !ok {
			return nil, fmt.Errorf("%w: no agent defined for context %s", contractx.ErrValidation, agentCtx)
		}
		def, err := buildDefinition(agentCtx, e, prompts, tools)
		if err != nil {
			return nil, err
		}
		c.agents[agentCtx] = def
	}
	return c, nil
}

func MustNew(prompts promptx.PromptSet, tools contractx.ToolRegistry, opts ...Option) *Catalog {
	c, err := New(prompts, tools, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func parse(raw []byte) (map[contractx.AgentContext]entry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var byKey map[string]entry
	if err := dec.Decode(&byKey); err != nil {
		return nil, fmt.Errorf("%w: parse agent definitions: %v", contractx.ErrValidation, err)
	}

	out := make(map[contractx.AgentContext]entry, len(byKey))
	for key, e := range byKey {
		agentCtx, err := contractx.ParseAgentContext(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
		}
		out[agentCtx] = e
	}
	return out, nil
}

func buildDefinition(agentCtx contractx.AgentContext, e entry, prompts promptx.PromptSet, tools contractx.ToolRegistry) (contractx.AgentDefinition, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return contractx.AgentDefinition{}, fmt.Errorf("%w: context=%s has no name", contractx.ErrValidation, agentCtx)
	}
	systemPrompt, err := prompts.For(agentCtx)
	if err != nil {
		return contractx.AgentDefinition{}, err
	}

	seen := make(map[string]bool, len(e.Tools))
	defs := make([]contractx.ToolDefinition, 0, len(e.Tools))
	for _, toolName := range e.Tools {
		if seen[toolName] {
			return contractx.AgentDefinition{}, fmt.Errorf("%w: context=%s lists tool %s twice", contractx.ErrValidation, agentCtx, toolName)
		}
		seen[toolName] = true

		t, err := tools.Resolve(toolName)
		if err != nil {
			return contractx.AgentDefinition{}, fmt.Errorf("%w: context=%s: %v", contractx.ErrValidation, agentCtx, err)
		}
		defs = append(defs, t.Definition())
	}

	return contractx.AgentDefinition{
		Context:      agentCtx,
		Name:         name,
		Description:  strings.TrimSpace(e.Description),
		SystemPrompt: systemPrompt,
		Tools:        defs,
		Capabilities: nonNil(e.Capabilities),
		Examples:     nonNil(e.Examples),
	}, nil
}

// Lookup returns ErrUnknownContext for any value outside the closed set.
func (c *Catalog) Lookup(agentCtx contractx.AgentContext) (contractx.AgentDefinition, error) {
	def, ok := c.agents[agentCtx]
	if !ok {
		return contractx.AgentDefinition{}, fmt.Errorf("%w: %q", contractx.ErrUnknownContext, agentCtx)
	}
	def.Tools = append([]contractx.ToolDefinition(nil), def.Tools...)
	def.Capabilities = nonNil(def.Capabilities)
	def.Examples = nonNil(def.Examples)
	return def, nil
}

func (c *Catalog) Info(agentCtx contractx.AgentContext) (contractx.AgentInfo, error) {
	def, err := c.Lookup(agentCtx)
	if err != nil {
		return contractx.AgentInfo{}, err
	}
	return contractx.AgentInfo{
		Context:      def.Context,
		Name:         def.Name,
		Description:  def.Description,
		Capabilities: def.Capabilities,
		Examples:     def.Examples,
	}, nil
}

// List returns AgentInfo for every context in display order.
func (c *Catalog) List() []contractx.AgentInfo {
	out := make([]contractx.AgentInfo, 0, len(c.agents))
	for _, agentCtx := range contractx.AllContexts() {
		if info, err := c.Info(agentCtx); err == nil {
			out = append(out, info)
		}
	}
	return out
}

// SuggestedQuestions never returns nil for a known context.
func (c *Catalog) SuggestedQuestions(agentCtx contractx.AgentContext) ([]string, error) {
	def, err := c.Lookup(agentCtx)
	if err != nil {
		return nil, err
	}
	return def.Examples, nil
}

func (c *Catalog) Contexts() []contractx.AgentContext {
	return contractx.AllContexts()
}

func nonNil(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
