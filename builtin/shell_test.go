package builtin

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinlietz93/streamtool"
)

func runTool(t *testing.T, desc streamtool.Descriptor, args map[string]any) (*streamtool.Result, error) {
	t.Helper()
	return desc.Capability.Run(context.Background(), args)
}

func TestShell_Echo(t *testing.T) {
	desc, err := Shell()
	require.NoError(t, err)

	res, err := runTool(t, desc, map[string]any{"command": "echo hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", res.Content)
}

func TestShell_CapturesStderr(t *testing.T) {
	desc, err := Shell()
	require.NoError(t, err)

	res, err := runTool(t, desc, map[string]any{"command": "echo oops >&2"})
	require.NoError(t, err)
	assert.Equal(t, "oops\n", res.Content)
}

func TestShell_ExitFailure(t *testing.T) {
	desc, err := Shell()
	require.NoError(t, err)

	_, err = runTool(t, desc, map[string]any{"command": "echo bad; exit 3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Contains(t, err.Error(), "bad")
}

func TestShell_EmptyCommand(t *testing.T) {
	desc, err := Shell()
	require.NoError(t, err)

	_, err = runTool(t, desc, map[string]any{"command": ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, streamtool.ErrValidation)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("x", 20)
	got := truncate(long, 10)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("x", 10)))
	assert.Contains(t, got, "truncated")
}
