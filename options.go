package streamtool

import (
	"context"
	"time"
)

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	onBefore       func(context.Context, StructuredCall)
	onAfter        func(context.Context, StructuredCall, Outcome, time.Duration)
}

// WithDefaultTimeout sets the default per-dispatch timeout. Descriptors with
// their own Timeout override it. Pass 0 to disable the bound entirely.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithMaxConcurrency limits concurrent dispatches across all streams sharing
// the registry (semaphore). Pass 0 or negative to disable the semaphore.
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) {
		o.maxConcurrency = n
	}
}

// WithRecoverPanics enables panic recovery in Dispatch (a panicking
// capability yields an execution_error outcome instead of crashing).
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithOnBeforeDispatch sets a hook called before each capability runs.
func WithOnBeforeDispatch(fn func(context.Context, StructuredCall)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterDispatch sets a hook called after each dispatch with the final
// outcome and duration, regardless of status.
func WithOnAfterDispatch(fn func(context.Context, StructuredCall, Outcome, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}

// StreamOption configures a Stream.
type StreamOption func(*streamOptions)

type streamOptions struct {
	marker        string
	contextWindow int
	maxHistory    int
}

// WithMarker overrides the structured-form marker (default DefaultMarker).
func WithMarker(marker string) StreamOption {
	return func(o *streamOptions) {
		if marker != "" {
			o.marker = marker
		}
	}
}

// WithContextWindow sets how many characters of recent stream text are kept
// for error context (default 3000).
func WithContextWindow(n int) StreamOption {
	return func(o *streamOptions) {
		if n > 0 {
			o.contextWindow = n
		}
	}
}

// WithMaxHistory bounds the per-stream call history ring (default 256).
// Pass 0 to disable history recording.
func WithMaxHistory(n int) StreamOption {
	return func(o *streamOptions) {
		o.maxHistory = n
	}
}
