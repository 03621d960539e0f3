// Package streamtool extracts tool calls from a streaming model response,
// executes them against a registry of capabilities, and splices the results
// back into the emitted text.
//
// # Overview
//
// LLMs request actions by emitting call-like syntax inline in their output.
// This package scans the raw token stream incrementally — calls may be split
// across arbitrary chunk boundaries — extracts each call, normalizes it into
// a StructuredCall, dispatches it to the matching Capability, and replaces
// the call text with the rendered Outcome. Surrounding prose is never lost,
// duplicated, or reordered.
//
// Pipeline: Stream.Feed(chunk) → scanner (delimiter/quote tracking) →
// normalizer (positional/named binding, literal coercion) → Registry.Dispatch
// (validate, execute under timeout) → splice (one uniform path for every
// tool).
//
// # Key concepts
//
//   - Two call surfaces: informal inline expressions like
//     shell("df -h") and the explicit marker form
//     TOOL_CALL:{"tool": "shell", "input_schema": {"command": "df -h"}}.
//     Both normalize into the same StructuredCall.
//   - One call in flight per stream, and every call that is fully scanned
//     produces exactly one Outcome and exactly one splice.
//   - Local recovery: unknown tools, validation failures, execution errors,
//     and timeouts are rendered as inline annotations; scanning continues.
//
// See Capability, Descriptor, Registry, and Stream for the core types, and
// NewCapability for building a descriptor from a typed Go function.
//
// # Example
//
//	type Args struct { Command string `json:"command" jsonschema:"required"` }
//	desc, err := streamtool.NewCapability("shell", "Run a shell command",
//	    func(ctx context.Context, a Args) (*streamtool.Result, error) {
//	        out, err := exec.CommandContext(ctx, "sh", "-c", a.Command).Output()
//	        return &streamtool.Result{Content: string(out)}, err
//	    })
//	if err != nil { ... }
//	reg := streamtool.NewRegistry()
//	if err := reg.Register(desc); err != nil { ... }
//	st := streamtool.New(reg)
//	emitted, err := st.Feed(ctx, `before shell("echo hi") after`)
package streamtool
