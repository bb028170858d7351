// Package genx's func_tool.go builds the FuncTool values C9's tool-calling
// loop hands a Generator: a name/description/JSON-schema triple plus the Go
// closure that actually runs when the model calls it.
package genx

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

var _ Tool = (*FuncTool)(nil)

// FuncToolOption configures a FuncTool built by NewFuncTool; ArgType pins
// the option to the tool's argument type at compile time.
type FuncToolOption[ArgType any] interface {
	applyToFuncTool(*FuncTool)
}

// WithSchema overrides the auto-derived JSON schema for type T — needed when
// reflection alone can't express a constraint (an enum, a format string).
func WithSchema[T any](s *jsonschema.Schema) FuncToolOption[any] {
	return &typeSchemaOption{t: reflect.TypeFor[T](), s: s}
}

type typeSchemaOption struct {
	t reflect.Type
	s *jsonschema.Schema
}

func (o *typeSchemaOption) applyToFuncTool(t *FuncTool) {
	t.typeSchemas[o.t] = o.s
}

// InvokeFunc is a tool's actual implementation: given the raw FuncCall and
// its argument decoded into T, produce the result to feed back to the model.
type InvokeFunc[T any] func(ctx context.Context, call *FuncCall, arg T) (any, error)

func (fn InvokeFunc[T]) applyToFuncTool(t *FuncTool) {
	t.Invoke = func(ctx context.Context, call *FuncCall, arg string) (any, error) {
		var v T
		if err := unmarshalJSON([]byte(arg), &v); err != nil {
			return nil, fmt.Errorf("unmarshal %q error: %w", arg, err)
		}
		return fn(ctx, call, v)
	}
}

// FuncTool is a single callable tool: its wire name/description/schema for
// the model, and the Go function that runs when the model invokes it.
type FuncTool struct {
	Name        string
	Description string
	Argument    *jsonschema.Schema

	typeSchemas map[reflect.Type]*jsonschema.Schema

	Invoke InvokeFunc[string]
}

// NewFuncCall binds this tool's name to a specific argument payload the
// model just emitted, ready to Invoke.
func (tool *FuncTool) NewFuncCall(args string) *FuncCall {
	return &FuncCall{
		Name:      tool.Name,
		Arguments: args,

		tool: tool,
	}
}

func (*FuncTool) isTool() {}

// NewFuncTool derives a FuncTool's JSON schema from ArgType via reflection
// and wires fn (if supplied through an InvokeFunc option) or a default
// pass-through decoder as its Invoke implementation.
func NewFuncTool[ArgType any](name, description string, opts ...FuncToolOption[ArgType]) (*FuncTool, error) {
	tool := &FuncTool{
		Name:        name,
		Description: description,
		typeSchemas: make(map[reflect.Type]*jsonschema.Schema),
	}
	for _, opt := range opts {
		opt.applyToFuncTool(tool)
	}
	arg, err := jsonschema.For[ArgType](&jsonschema.ForOptions{
		TypeSchemas: tool.typeSchemas,
	})
	if err != nil {
		return nil, err
	}
	tool.Argument = arg

	if tool.Invoke == nil {
		tool.Invoke = func(ctx context.Context, _ *FuncCall, arg string) (any, error) {
			var v ArgType
			if err := unmarshalJSON([]byte(arg), &v); err != nil {
				return nil, fmt.Errorf("unmarshal %q error: %w", arg, err)
			}
			return &v, nil
		}
	}
	return tool, nil
}

// MustNewFuncTool is NewFuncTool for tool definitions fixed at init time,
// where a schema-derivation failure is a programming error worth a panic.
func MustNewFuncTool[ArgType any](name, description string, opts ...FuncToolOption[ArgType]) *FuncTool {
	tool, err := NewFuncTool(name, description, opts...)
	if err != nil {
		panic(err)
	}
	return tool
}
