package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/justinlietz93/streamtool"
)

// shell output is capped so a chatty command cannot flood the spliced stream.
const maxShellOutput = 64 * 1024

type shellArgs struct {
	Command string `json:"command" jsonschema:"description=The shell command to execute"`
}

// Shell returns the descriptor for the shell tool. The command runs under
// the dispatch context, so the registry timeout kills hung commands.
func Shell() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("shell", "Execute a shell command and return its output.",
		func(ctx context.Context, a shellArgs) (*streamtool.Result, error) {
			if a.Command == "" {
				return nil, &streamtool.CallError{Reason: "command is required", Err: streamtool.ErrValidation}
			}
			cmd := exec.CommandContext(ctx, "bash", "-c", a.Command)
			var buf bytes.Buffer
			cmd.Stdout = &buf
			cmd.Stderr = &buf
			err := cmd.Run()
			output := truncate(buf.String(), maxShellOutput)
			if ctx.Err() != nil {
				return nil, fmt.Errorf("command interrupted: %w", ctx.Err())
			}
			if err != nil {
				return nil, fmt.Errorf("%s\n%s", err, output)
			}
			return &streamtool.Result{Content: output}, nil
		})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (output truncated)"
}
