// Package testutil provides test helpers for streamtool (e.g. MockCapability).
package testutil

import (
	"context"

	"github.com/justinlietz93/streamtool"
)

// MockCapability is a configurable Capability implementation for tests.
type MockCapability struct {
	RunFn func(ctx context.Context, args map[string]any) (*streamtool.Result, error)
	Calls []map[string]any
}

// Run records the args and delegates to RunFn; without RunFn it returns an
// empty result.
func (m *MockCapability) Run(ctx context.Context, args map[string]any) (*streamtool.Result, error) {
	m.Calls = append(m.Calls, args)
	if m.RunFn != nil {
		return m.RunFn(ctx, args)
	}
	return &streamtool.Result{}, nil
}

// Ensure MockCapability implements Capability.
var _ streamtool.Capability = (*MockCapability)(nil)

// Static returns a capability that always answers with the given content.
func Static(content string) streamtool.Capability {
	return streamtool.CapabilityFunc(func(context.Context, map[string]any) (*streamtool.Result, error) {
		return &streamtool.Result{Content: content}, nil
	})
}
