package streamtool

import (
	"context"
	"time"
)

// DefaultMarker is the literal prefix of the explicit structured call form.
const DefaultMarker = "TOOL_CALL:"

// Status classifies the outcome of one dispatched call.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusValidationError Status = "validation_error"
	StatusExecutionError  Status = "execution_error"
	StatusTimeout         Status = "timeout"
	StatusUnknownTool     Status = "unknown_tool"
	StatusCancelled       Status = "cancelled"
)

// Result is the success payload returned by a Capability.
// Content is spliced verbatim into the emitted stream; Data optionally
// carries a structured value for callers that inspect Outcome.Data.
type Result struct {
	Content string
	Data    any
}

// Capability is the contract every tool implementation satisfies. It is
// provider-agnostic and knows nothing about the call syntax: args is the
// fully bound name→value mapping produced by validation.
//
// Run must honor ctx cancellation; the dispatcher bounds every run with a
// per-descriptor (or registry default) timeout. A returned error becomes an
// execution_error outcome and never terminates the stream.
type Capability interface {
	Run(ctx context.Context, args map[string]any) (*Result, error)
}

// CapabilityFunc adapts a plain function to the Capability interface.
type CapabilityFunc func(ctx context.Context, args map[string]any) (*Result, error)

// Run implements Capability.
func (f CapabilityFunc) Run(ctx context.Context, args map[string]any) (*Result, error) {
	return f(ctx, args)
}

// ParamType is the declared type of a parameter slot.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeList    ParamType = "list"
	TypeObject  ParamType = "object"
	// TypeAny accepts any literal; used for slots with no declared type.
	TypeAny ParamType = "any"
)

// Param is one declared parameter slot of a tool. Slot order is the
// positional binding order.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Description string
}

// Descriptor describes a registered tool: its unique name, ordered parameter
// slots, and the capability that executes it. Descriptors are registered once
// at startup and treated as immutable thereafter.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
	// Timeout overrides the registry default for this tool when > 0.
	Timeout    time.Duration
	Capability Capability

	// schema holds the compiled JSON Schema used to validate structured-form
	// argument objects; built lazily by Registry.Register.
	schema *compiledSchema
	// exported JSON Schema map (for prompting / provider export).
	schemaMap map[string]any
}

// Schema returns the descriptor's parameters as a JSON Schema map, suitable
// for inclusion in an LLM tool definition. The returned map must not be
// mutated.
func (d *Descriptor) Schema() map[string]any {
	if d.schemaMap != nil {
		return d.schemaMap
	}
	return paramsSchemaMap(d.Params)
}

func (d *Descriptor) param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// StructuredCall is the canonical form of one extracted call. Positional
// holds leading unnamed literals in order; Named holds keyword literals.
// All values are copies; nothing aliases the stream buffer.
type StructuredCall struct {
	Tool       string
	Positional []any
	Named      map[string]any
}

// Outcome is the final record of one dispatched call. Exactly one Outcome is
// produced for every call that is fully scanned, regardless of status.
type Outcome struct {
	CallID  string
	Tool    string
	Status  Status
	Content string // success payload, verbatim
	Message string // human-readable detail for non-success statuses
	Data    any
}

// Render produces the deterministic text spliced into the output stream:
// the capability content verbatim on success, a short annotation otherwise.
// Every tool goes through this single path; per-tool differences belong in
// the capability's own content, never here.
func (o Outcome) Render() string {
	if o.Status == StatusSuccess {
		return o.Content
	}
	name := o.Tool
	if name == "" {
		name = "call"
	}
	return "[tool " + name + " " + string(o.Status) + ": " + o.Message + "]"
}
