package streamtool

import (
	"bytes"
	"encoding/json"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchema wraps the JSON Schema compiled from a descriptor's
// parameter slots. Every dispatch validates the fully bound argument map
// against it, one uniform check for both call surface forms.
type compiledSchema struct {
	s *jsonschema.Schema
}

// compileParams builds and compiles the object schema for a parameter list.
// Called once per Register; Dispatch never pays compilation cost.
func compileParams(params []Param) (*compiledSchema, error) {
	raw, err := json.Marshal(paramsSchemaMap(params))
	if err != nil {
		return nil, &SystemError{Err: err}
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &SystemError{Err: err}
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("tool.json", doc); err != nil {
		return nil, &SystemError{Err: err}
	}
	s, err := c.Compile("tool.json")
	if err != nil {
		return nil, &SystemError{Err: err}
	}
	return &compiledSchema{s: s}, nil
}

// validate checks a bound argument map. The map round-trips through JSON so
// the validator sees the numeric representation it expects.
func (c *compiledSchema) validate(args map[string]any) error {
	if c == nil || c.s == nil {
		return nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return &SystemError{Err: err}
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &SystemError{Err: err}
	}
	if err := c.s.Validate(doc); err != nil {
		return &CallError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}

// paramsSchemaMap renders parameter slots as a JSON Schema object map, the
// shape LLM providers expect in a tool definition.
func paramsSchemaMap(params []Param) map[string]any {
	props := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		prop := map[string]any{}
		if t := jsonType(p.Type); t != "" {
			prop["type"] = t
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	m := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		m["required"] = required
	}
	return m
}

func jsonType(t ParamType) string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeList:
		return "array"
	case TypeObject:
		return "object"
	}
	return ""
}

func paramType(jsonType string) ParamType {
	switch jsonType {
	case "string":
		return TypeString
	case "number", "integer":
		return TypeNumber
	case "boolean":
		return TypeBoolean
	case "array":
		return TypeList
	case "object":
		return TypeObject
	}
	return TypeAny
}
