package streamtool

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a Capability with cross-cutting behavior. The descriptor
// is passed alongside so wrappers can log or decide by tool name without the
// capability having to know it.
type Middleware func(desc *Descriptor, next Capability) Capability

// WithLogging returns a middleware that logs start, end, duration, and
// errors of every capability run.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(desc *Descriptor, next Capability) Capability {
		name := desc.Name
		return CapabilityFunc(func(ctx context.Context, args map[string]any) (*Result, error) {
			logger.Info("tool start", "tool", name)
			start := time.Now()
			res, err := next.Run(ctx, args)
			dur := time.Since(start)
			if err != nil {
				logger.Error("tool error", "tool", name, "duration", dur, "error", err)
				return nil, err
			}
			logger.Info("tool end", "tool", name, "duration", dur)
			return res, nil
		})
	}
}

// WithRecovery returns a middleware that recovers panics and returns a
// SystemError. The registry already recovers by default; use this when
// running capabilities outside Dispatch or with WithRecoverPanics(false).
func WithRecovery() Middleware {
	return func(_ *Descriptor, next Capability) Capability {
		return CapabilityFunc(func(ctx context.Context, args map[string]any) (res *Result, err error) {
			defer func() {
				if p := recover(); p != nil {
					res = nil
					err = &SystemError{Err: &panicError{p: p}}
				}
			}()
			return next.Run(ctx, args)
		})
	}
}

// Use stores the given middlewares and reapplies them from scratch to all
// registered capabilities (onion order: first middleware is outermost).
// Descriptors registered after Use also get these middlewares. Calling Use
// again replaces the chain and rewraps from the raw capabilities, avoiding
// double-wrapping.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, desc := range r.descs {
		desc.Capability = r.wrapLocked(desc, r.raw[name])
	}
}

// wrapLocked applies the stored middleware chain; caller holds r.mu.
func (r *Registry) wrapLocked(desc *Descriptor, raw Capability) Capability {
	c := raw
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		c = r.middlewares[i](desc, c)
	}
	return c
}
