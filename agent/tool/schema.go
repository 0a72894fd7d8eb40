package tool

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonschema"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

// JSONSchema renders a tool's parameters as a draft 2020-12 object schema.
func JSONSchema(def contractx.ToolDefinition) map[string]any {
	props := make(map[string]any, len(def.Parameters))
	required := make([]string, 0, len(def.Parameters))
	for _, p := range def.Parameters {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = append([]string(nil), p.Enum...)
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	out := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func compileSchema(def contractx.ToolDefinition) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(JSONSchema(def))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiled, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

// ToolInfos translates definitions into eino function-calling metadata.
func ToolInfos(defs []contractx.ToolDefinition) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, ToolInfo(def))
	}
	return infos
}

func ToolInfo(def contractx.ToolDefinition) *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(def.Parameters))
	for _, p := range def.Parameters {
		info := &schema.ParameterInfo{
			Type:     dataType(p.Type),
			Desc:     p.Description,
			Required: p.Required,
			Enum:     p.Enum,
		}
		if p.Type == contractx.TypeArray {
			info.ElemInfo = &schema.ParameterInfo{Type: schema.String}
		}
		params[p.Name] = info
	}
	return &schema.ToolInfo{
		Name:        def.Name,
		Desc:        def.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

func dataType(t contractx.ParameterType) schema.DataType {
	switch t {
	case contractx.TypeNumber:
		return schema.Number
	case contractx.TypeBoolean:
		return schema.Boolean
	case contractx.TypeObject:
		return schema.Object
	case contractx.TypeArray:
		return schema.Array
	default:
		return schema.String
	}
}
