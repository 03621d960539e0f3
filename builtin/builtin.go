// Package builtin provides the standard capability set: shell execution,
// file operations, HTTP requests, web search, package management, and a
// SQLite-backed key/value memory. Each tool satisfies only the
// streamtool.Capability contract; the pipeline knows nothing about any of
// them beyond their descriptors.
package builtin

import (
	"time"

	"github.com/justinlietz93/streamtool"
)

// Options configures the builtin tool set.
type Options struct {
	// MemoryPath is the SQLite file backing the memory tools; empty means an
	// in-process database that vanishes when the store closes.
	MemoryPath string
	// TimeoutFor optionally overrides the dispatch timeout per tool name.
	TimeoutFor func(tool string) time.Duration
}

// RegisterAll builds every builtin descriptor and registers it. The returned
// Store backs the memory tools and must be closed by the caller when the
// registry is done.
func RegisterAll(reg *streamtool.Registry, opts Options) (*Store, error) {
	store, err := OpenStore(opts.MemoryPath)
	if err != nil {
		return nil, err
	}

	builders := []func() (streamtool.Descriptor, error){
		Shell,
		FileRead,
		FileWrite,
		FileDelete,
		ListDir,
		HTTPRequest,
		WebSearch,
		PackageManager,
		store.MemoryRead,
		store.MemoryWrite,
		store.MemoryList,
	}
	for _, build := range builders {
		desc, err := build()
		if err != nil {
			store.Close()
			return nil, err
		}
		if opts.TimeoutFor != nil {
			if d := opts.TimeoutFor(desc.Name); d > 0 {
				desc.Timeout = d
			}
		}
		if err := reg.Register(desc); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}
