package builtin

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/justinlietz93/streamtool"
)

const maxFileRead = 256 * 1024

type fileReadArgs struct {
	Path string `json:"path" jsonschema:"description=Path of the file to read"`
}

// FileRead returns the descriptor for the file_read tool.
func FileRead() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("file_read", "Read a text file and return its content.",
		func(_ context.Context, a fileReadArgs) (*streamtool.Result, error) {
			data, err := os.ReadFile(a.Path)
			if err != nil {
				return nil, err
			}
			return &streamtool.Result{Content: truncate(string(data), maxFileRead)}, nil
		})
}

type fileWriteArgs struct {
	Path    string `json:"path" jsonschema:"description=Destination path"`
	Content string `json:"content" jsonschema:"description=Full file content to write"`
}

// FileWrite returns the descriptor for the file_write tool. Parent
// directories are created as needed.
func FileWrite() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("file_write", "Write content to a file, creating parent directories.",
		func(_ context.Context, a fileWriteArgs) (*streamtool.Result, error) {
			if dir := filepath.Dir(a.Path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, err
				}
			}
			if err := os.WriteFile(a.Path, []byte(a.Content), 0o644); err != nil {
				return nil, err
			}
			return &streamtool.Result{
				Content: fmt.Sprintf("wrote %d bytes to %s", len(a.Content), a.Path),
			}, nil
		})
}

type fileDeleteArgs struct {
	Path string `json:"path" jsonschema:"description=Path of the file to delete"`
}

// FileDelete returns the descriptor for the file_delete tool. Only files are
// deleted; refusing directories keeps a bad call from wiping a tree.
func FileDelete() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("file_delete", "Delete a single file.",
		func(_ context.Context, a fileDeleteArgs) (*streamtool.Result, error) {
			info, err := os.Stat(a.Path)
			if err != nil {
				return nil, err
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%s is a directory", a.Path)
			}
			if err := os.Remove(a.Path); err != nil {
				return nil, err
			}
			return &streamtool.Result{Content: "deleted " + a.Path}, nil
		})
}

type listDirArgs struct {
	Path    string `json:"path" jsonschema:"description=Directory to list"`
	Pattern string `json:"pattern,omitempty" jsonschema:"description=Optional doublestar glob such as **/*.go"`
}

// ListDir returns the descriptor for the list_dir tool. Without a pattern it
// lists direct entries; with one it walks the tree matching the glob.
func ListDir() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("list_dir", "List directory entries, optionally filtered by a glob pattern.",
		func(_ context.Context, a listDirArgs) (*streamtool.Result, error) {
			if a.Pattern == "" {
				entries, err := os.ReadDir(a.Path)
				if err != nil {
					return nil, err
				}
				names := make([]string, 0, len(entries))
				for _, e := range entries {
					name := e.Name()
					if e.IsDir() {
						name += "/"
					}
					names = append(names, name)
				}
				return &streamtool.Result{Content: strings.Join(names, "\n"), Data: names}, nil
			}

			if !doublestar.ValidatePattern(a.Pattern) {
				return nil, fmt.Errorf("invalid glob pattern %q", a.Pattern)
			}
			var matches []string
			fsys := os.DirFS(a.Path)
			err := doublestar.GlobWalk(fsys, a.Pattern, func(path string, d fs.DirEntry) error {
				if !d.IsDir() {
					matches = append(matches, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			sort.Strings(matches)
			return &streamtool.Result{Content: strings.Join(matches, "\n"), Data: matches}, nil
		})
}
