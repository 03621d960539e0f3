package streamtool

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds tool descriptors and dispatches validated calls to their
// capabilities with timeout, semaphore, and panic recovery. The descriptor
// table is immutable after startup in the intended usage; Register is still
// guarded for callers that set up concurrently.
type Registry struct {
	mu          sync.RWMutex
	descs       map[string]*Descriptor
	raw         map[string]Capability // unwrapped capabilities, rewrapped by Use
	middlewares []Middleware
	sem         chan struct{}
	opts        registryOptions
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:        30 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Registry{
		descs: make(map[string]*Descriptor),
		raw:   make(map[string]Capability),
		sem:   sem,
		opts:  o,
	}
}

// Register adds a descriptor. A duplicate name is rejected with
// ErrDuplicateTool: replacing a live tool mid-session is a configuration
// error, not a feature. The descriptor's parameter schema is compiled here
// so Dispatch never pays compilation cost.
func (r *Registry) Register(desc Descriptor) error {
	if desc.Name == "" {
		return &CallError{Reason: "descriptor has no name", Err: ErrValidation}
	}
	if desc.Capability == nil {
		return &CallError{Reason: fmt.Sprintf("descriptor %q has no capability", desc.Name), Err: ErrValidation}
	}
	compiled, err := compileParams(desc.Params)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descs[desc.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, desc.Name)
	}
	d := desc
	d.schema = compiled
	if d.schemaMap == nil {
		d.schemaMap = paramsSchemaMap(d.Params)
	}
	r.raw[d.Name] = d.Capability
	d.Capability = r.wrapLocked(&d, d.Capability)
	r.descs[d.Name] = &d
	return nil
}

// Resolve returns the descriptor for name, or (nil, false) when unknown.
func (r *Registry) Resolve(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descs[name]
	return d, ok
}

// Has reports whether a tool with the given name is registered. The scanner
// uses it to decide whether a bare identifier starts a call.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.descs[name]
	return ok
}

// HasPrefix reports whether any registered tool name starts with fragment.
// The scanner uses it to decide whether a trailing identifier fragment must
// stay buffered across a chunk boundary.
func (r *Registry) HasPrefix(fragment string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name := range r.descs {
		if strings.HasPrefix(name, fragment) {
			return true
		}
	}
	return false
}

// Descriptors returns all registered descriptors sorted by name, e.g. for
// exporting tool definitions to an LLM provider.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.descs))
	for name := range r.descs {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.descs[name])
	}
	return out
}

type runResult struct {
	res *Result
	err error
}

// Dispatch validates the structured call against its descriptor and invokes
// the capability under a bounded timeout. It always returns an Outcome: an
// unknown tool, a validation failure, a capability error, a timeout, or a
// cancellation all produce one, so no call that reached this point can ever
// vanish from the emitted stream.
func (r *Registry) Dispatch(ctx context.Context, call StructuredCall) Outcome {
	id := uuid.NewString()
	desc, ok := r.Resolve(call.Tool)
	if !ok {
		return Outcome{
			CallID:  id,
			Tool:    call.Tool,
			Status:  StatusUnknownTool,
			Message: fmt.Sprintf("unrecognized tool %q", call.Tool),
		}
	}

	args, err := bindArgs(call, desc)
	if err == nil {
		err = desc.schema.validate(args)
	}
	if err != nil {
		return Outcome{CallID: id, Tool: call.Tool, Status: StatusValidationError, Message: reasonOf(err)}
	}

	if err := r.acquireSemaphore(ctx); err != nil {
		return Outcome{CallID: id, Tool: call.Tool, Status: StatusCancelled, Message: err.Error()}
	}
	defer r.releaseSemaphore()

	timeout := r.opts.timeout
	if desc.Timeout > 0 {
		timeout = desc.Timeout
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}
	start := time.Now()
	outcome := r.run(ctx, runCtx, desc, call, args, id)
	if r.opts.onAfter != nil {
		r.opts.onAfter(ctx, call, outcome, time.Since(start))
	}
	return outcome
}

// run executes the capability in its own goroutine so a hanging tool cannot
// hang the stream: the select below resolves to a timeout or cancelled
// outcome while the abandoned goroutine winds down on its cancelled context.
func (r *Registry) run(parent, runCtx context.Context, desc *Descriptor, call StructuredCall, args map[string]any, id string) Outcome {
	ch := make(chan runResult, 1)
	go func() {
		if r.opts.recoverPanics {
			defer func() {
				if p := recover(); p != nil {
					ch <- runResult{err: &SystemError{Err: &panicError{p: p}}}
				}
			}()
		}
		res, err := desc.Capability.Run(runCtx, args)
		ch <- runResult{res: res, err: err}
	}()

	select {
	case rr := <-ch:
		if rr.err != nil {
			msg := rr.err.Error()
			if IsSystemError(rr.err) {
				// Internals stay internal; the model only needs to know it failed.
				msg = "internal error"
			}
			return Outcome{CallID: id, Tool: call.Tool, Status: StatusExecutionError, Message: msg}
		}
		out := Outcome{CallID: id, Tool: call.Tool, Status: StatusSuccess}
		if rr.res != nil {
			out.Content = rr.res.Content
			out.Data = rr.res.Data
		}
		return out
	case <-runCtx.Done():
		if parent.Err() != nil || !errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Outcome{CallID: id, Tool: call.Tool, Status: StatusCancelled, Message: "stream cancelled during dispatch"}
		}
		return Outcome{CallID: id, Tool: call.Tool, Status: StatusTimeout, Message: fmt.Sprintf("exceeded %s", timeoutOf(desc, r.opts.timeout))}
	}
}

func timeoutOf(desc *Descriptor, def time.Duration) time.Duration {
	if desc.Timeout > 0 {
		return desc.Timeout
	}
	return def
}

// reasonOf extracts the client-visible reason from a CallError chain.
func reasonOf(err error) string {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return err.Error()
}

func (r *Registry) acquireSemaphore(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) releaseSemaphore() {
	if r.sem != nil {
		<-r.sem
	}
}
