package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonschema"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

// Handler runs one domain operation with decoded arguments.
type Handler[A any] func(ctx context.Context, args A, caller *contractx.Caller) (any, error)

// argsValidator is implemented by argument structs with checks beyond the schema.
type argsValidator interface {
	Validate() error
}

// NoArgs is the argument type of tools that take no parameters.
type NoArgs struct{}

type typedTool[A any] struct {
	def     contractx.ToolDefinition
	schema  *jsonschema.Schema
	handler Handler[A]
	events  contractx.EventPublisher
	now     func() time.Time

	publishTimeout time.Duration
}

var _ contractx.Tool = (*typedTool[NoArgs])(nil)

func newTool[A any](name, description string, mutates bool, handler Handler[A]) (*typedTool[A], error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: tool name is required", contractx.ErrValidation)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: tool=%s has no handler", contractx.ErrValidation, name)
	}

	var zero A
	params, err := deriveParameters(reflect.TypeOf(zero))
	if err != nil {
		return nil, fmt.Errorf("%w: tool=%s: %v", contractx.ErrValidation, name, err)
	}

	def := contractx.ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  params,
		Mutates:     mutates,
	}
	compiled, err := compileSchema(def)
	if err != nil {
		return nil, fmt.Errorf("%w: tool=%s: %v", contractx.ErrValidation, name, err)
	}

	return &typedTool[A]{
		def:     def,
		schema:  compiled,
		handler: handler,
		now:     time.Now,
	}, nil
}

func (t *typedTool[A]) Definition() contractx.ToolDefinition {
	return t.def
}

// Validate checks args against the JSON Schema derived from A and then
// against A's own Validate method.
func (t *typedTool[A]) Validate(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	result := t.schema.Validate(args)
	if !result.IsValid() {
		return fmt.Errorf("%w: tool=%s: %s", contractx.ErrToolArguments, t.def.Name, result.Error())
	}
	_, err := t.bind(args)
	return err
}

func (t *typedTool[A]) Execute(ctx context.Context, args map[string]any, caller *contractx.Caller) (any, error) {
	decoded, err := t.bind(args)
	if err != nil {
		return nil, err
	}
	if t.def.Mutates && (caller == nil || strings.TrimSpace(caller.UserID) == "") {
		return nil, fmt.Errorf("%w: tool=%s requires an authenticated caller", contractx.ErrUnauthorized, t.def.Name)
	}

	out, err := t.handler(ctx, decoded, caller)
	if err != nil {
		return nil, err
	}

	if t.def.Mutates && t.events != nil {
		event := contractx.ToolEvent{
			ID:         ulid.Make().String(),
			Tool:       t.def.Name,
			Caller:     caller,
			Args:       args,
			Result:     out,
			OccurredAt: t.now().UTC(),
		}
		// The mutation is committed; the event outlives the turn's deadline.
		go t.publish(context.WithoutCancel(ctx), event)
	}
	return out, nil
}

func (t *typedTool[A]) publish(ctx context.Context, event contractx.ToolEvent) {
	if t.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.publishTimeout)
		defer cancel()
	}
	if err := t.events.Publish(ctx, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("tool", t.def.Name).Str("event_id", event.ID).Msg("publish tool event failed")
	}
}

func (t *typedTool[A]) bind(args map[string]any) (A, error) {
	var out A
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolArguments, t.def.Name, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolArguments, t.def.Name, err)
	}
	if v, ok := any(out).(argsValidator); ok {
		if err := v.Validate(); err != nil {
			return out, fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolArguments, t.def.Name, err)
		}
	}
	return out, nil
}

// deriveParameters builds the parameter list from struct tags: json for the
// name (omitempty marks the parameter optional), desc and enum.
func deriveParameters(t reflect.Type) ([]contractx.ToolParameter, error) {
	if t == nil {
		return nil, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("argument type %s must be a struct", t)
	}

	params := make([]contractx.ToolParameter, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, optional := parseJSONTag(f)
		if name == "-" {
			continue
		}
		typ, err := parameterType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		p := contractx.ToolParameter{
			Name:        name,
			Type:        typ,
			Description: f.Tag.Get("desc"),
			Required:    !optional,
		}
		if enum := strings.TrimSpace(f.Tag.Get("enum")); enum != "" {
			for _, v := range strings.Split(enum, ",") {
				p.Enum = append(p.Enum, strings.TrimSpace(v))
			}
		}
		params = append(params, p)
	}
	return params, nil
}

func parseJSONTag(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = f.Name
	}
	optional := false
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			optional = true
		}
	}
	return name, optional
}

func parameterType(t reflect.Type) (contractx.ParameterType, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return contractx.TypeString, nil
	case reflect.Bool:
		return contractx.TypeBoolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return contractx.TypeNumber, nil
	case reflect.Slice, reflect.Array:
		return contractx.TypeArray, nil
	case reflect.Map, reflect.Struct:
		return contractx.TypeObject, nil
	default:
		return "", fmt.Errorf("unsupported kind %s", t.Kind())
	}
}

func checkUUID(field, v string) error {
	if _, err := uuid.Parse(strings.TrimSpace(v)); err != nil {
		return fmt.Errorf("%s must be a valid UUID", field)
	}
	return nil
}

func checkOptionalUUID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return checkUUID(field, v)
}
