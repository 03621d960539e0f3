package streamtool

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	invopop "github.com/invopop/jsonschema"
)

// Validatable is implemented by argument structs that need custom business
// validation beyond the schema. Called after unmarshaling, before the
// handler runs.
type Validatable interface {
	Validate() error
}

// DescriptorOption configures a descriptor built by NewCapability.
type DescriptorOption func(*Descriptor)

// WithTimeout sets a per-tool dispatch timeout, overriding the registry
// default.
func WithTimeout(d time.Duration) DescriptorOption {
	return func(desc *Descriptor) {
		desc.Timeout = d
	}
}

// NewCapability builds a Descriptor from a typed Go function. The argument
// struct is the single source of truth: its fields (in declaration order)
// become the positional parameter slots, jsonschema struct tags drive the
// required flags and descriptions, and the reflected schema is what gets
// exported to the LLM.
//
//	type Args struct {
//	    Path    string `json:"path" jsonschema:"required"`
//	    Pattern string `json:"pattern,omitempty"`
//	}
func NewCapability[T any](
	name, description string,
	fn func(ctx context.Context, args T) (*Result, error),
	opts ...DescriptorOption,
) (Descriptor, error) {
	params, schemaMap, err := reflectParams[T]()
	if err != nil {
		return Descriptor{}, err
	}
	desc := Descriptor{
		Name:        name,
		Description: description,
		Params:      params,
		Capability: CapabilityFunc(func(ctx context.Context, args map[string]any) (*Result, error) {
			typed, err := decodeArgs[T](args)
			if err != nil {
				return nil, err
			}
			return fn(ctx, typed)
		}),
		schemaMap: schemaMap,
	}
	for _, opt := range opts {
		opt(&desc)
	}
	return desc, nil
}

// reflectParams derives ordered parameter slots and an exported schema map
// for type T. Field order in the struct is the positional binding order.
func reflectParams[T any]() ([]Param, map[string]any, error) {
	r := &invopop.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := r.Reflect(new(T))

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	var params []Param
	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			params = append(params, Param{
				Name:        pair.Key,
				Type:        paramType(pair.Value.Type),
				Required:    required[pair.Key],
				Description: pair.Value.Description,
			})
		}
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, &SystemError{Err: err}
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(raw, &schemaMap); err != nil {
		return nil, nil, &SystemError{Err: err}
	}
	return params, schemaMap, nil
}

// decodeArgs round-trips the bound argument map into the typed struct and
// runs the Validatable layer if implemented.
func decodeArgs[T any](args map[string]any) (T, error) {
	var typed T
	raw, err := json.Marshal(args)
	if err != nil {
		return typed, &SystemError{Err: err}
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return typed, &CallError{Reason: "argument decode error: " + err.Error(), Err: ErrValidation}
	}
	if err := runCustomValidation(typed); err != nil {
		if IsCallError(err) {
			return typed, err
		}
		return typed, &CallError{Reason: err.Error(), Err: ErrValidation}
	}
	return typed, nil
}

// runCustomValidation runs Validatable.Validate on args; if args does not
// implement it, it tries &args for value types (pointer receiver). Never
// calls Validate twice for the same receiver.
func runCustomValidation[T any](args T) error {
	if v, ok := any(args).(Validatable); ok {
		return v.Validate()
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	if v, ok := any(&args).(Validatable); ok {
		return v.Validate()
	}
	return nil
}
