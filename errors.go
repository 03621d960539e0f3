package streamtool

import (
	"errors"
	"fmt"
)

// Sentinel errors for streamtool. Use errors.Is to check.
var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrTimeout       = errors.New("tool execution timeout")
	ErrValidation    = errors.New("validation failed")
	ErrDuplicateTool = errors.New("tool already registered")
	ErrStreamBusy    = errors.New("stream is busy: concurrent feed rejected")
	ErrStreamClosed  = errors.New("stream is closed")
	ErrMalformedCall = errors.New("malformed tool call")
)

// CallError is an error that should be surfaced to the LLM for
// self-correction (bad literal, missing required slot, unknown keyword).
// Do not expose stack traces or internal details to the LLM.
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is.
type CallError struct {
	Reason string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("invalid tool call: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains.
func (e *CallError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (panic, marshal failure).
// The LLM should not see the underlying error message or stack.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// MalformedCallError is the terminal stream error returned by Close when the
// model's output ended mid-call. Context carries a tail of recently seen
// text so the caller (or the model) can see what went wrong.
type MalformedCallError struct {
	Reason  string
	Context string
}

func (e *MalformedCallError) Error() string {
	return fmt.Sprintf("malformed tool call at stream end: %s", e.Reason)
}

// Unwrap makes errors.Is(err, ErrMalformedCall) hold.
func (e *MalformedCallError) Unwrap() error { return ErrMalformedCall }

// IsCallError returns true if err is or wraps a CallError.
func IsCallError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// panicError wraps a recovered panic value for SystemError.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
