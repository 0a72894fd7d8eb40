package tool

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

// Registry is the global name -> tool table. It is immutable after NewRegistry.
type Registry struct {
	tools map[string]contractx.Tool
	names []string
}

var _ contractx.ToolRegistry = (*Registry)(nil)

func NewRegistry(tools ...contractx.Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]contractx.Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			continue
		}
		name := t.Definition().Name
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("%w: duplicate tool name %q", contractx.ErrValidation, name)
		}
		r.tools[name] = t
		r.names = append(r.names, name)
	}
	return r, nil
}

func (r *Registry) Resolve(name string) (contractx.Tool, error) {
	t, ok := r.tools[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", contractx.ErrToolNotFound, name)
	}
	return t, nil
}

// Definitions returns the definitions for names in the given order.
func (r *Registry) Definitions(names []string) ([]contractx.ToolDefinition, error) {
	defs := make([]contractx.ToolDefinition, 0, len(names))
	for _, name := range names {
		t, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		defs = append(defs, t.Definition())
	}
	return defs, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Schema returns the JSON Schema of a registered tool's arguments.
func (r *Registry) Schema(name string) (map[string]any, bool) {
	t, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return JSONSchema(t.Definition()), true
}
