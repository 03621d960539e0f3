package streamtool_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinlietz93/streamtool"
	"github.com/justinlietz93/streamtool/testutil"
)

func shellDescriptor(cap streamtool.Capability) streamtool.Descriptor {
	return streamtool.Descriptor{
		Name:        "shell",
		Description: "Run a shell command.",
		Params: []streamtool.Param{
			{Name: "command", Type: streamtool.TypeString, Required: true},
		},
		Capability: cap,
	}
}

func TestRegistry_RejectsDuplicate(t *testing.T) {
	reg := streamtool.NewRegistry()
	require.NoError(t, reg.Register(shellDescriptor(testutil.Static("ok"))))

	err := reg.Register(shellDescriptor(testutil.Static("other")))
	require.Error(t, err)
	assert.ErrorIs(t, err, streamtool.ErrDuplicateTool)

	// The original registration is untouched.
	out := reg.Dispatch(context.Background(), streamtool.StructuredCall{
		Tool:  "shell",
		Named: map[string]any{"command": "ls"},
	})
	assert.Equal(t, streamtool.StatusSuccess, out.Status)
	assert.Equal(t, "ok", out.Content)
}

func TestRegistry_RegisterValidation(t *testing.T) {
	reg := streamtool.NewRegistry()

	err := reg.Register(streamtool.Descriptor{Capability: testutil.Static("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, streamtool.ErrValidation)

	err = reg.Register(streamtool.Descriptor{Name: "no_cap"})
	require.Error(t, err)
	assert.ErrorIs(t, err, streamtool.ErrValidation)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := streamtool.NewRegistry()
	require.NoError(t, reg.Register(shellDescriptor(testutil.Static("ok"))))

	desc, ok := reg.Resolve("shell")
	require.True(t, ok)
	assert.Equal(t, "shell", desc.Name)

	_, ok = reg.Resolve("nope")
	assert.False(t, ok)

	assert.True(t, reg.Has("shell"))
	assert.True(t, reg.HasPrefix("she"))
	assert.True(t, reg.HasPrefix("shell"))
	assert.False(t, reg.HasPrefix("shx"))
}

func TestRegistry_DescriptorsSorted(t *testing.T) {
	reg := streamtool.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		desc := streamtool.Descriptor{Name: name, Capability: testutil.Static("x")}
		require.NoError(t, reg.Register(desc))
	}
	descs := reg.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, "alpha", descs[0].Name)
	assert.Equal(t, "mid", descs[1].Name)
	assert.Equal(t, "zeta", descs[2].Name)
}

func TestDispatch_Success(t *testing.T) {
	mock := &testutil.MockCapability{
		RunFn: func(_ context.Context, args map[string]any) (*streamtool.Result, error) {
			return &streamtool.Result{Content: "ran: " + args["command"].(string)}, nil
		},
	}
	reg := streamtool.NewRegistry()
	require.NoError(t, reg.Register(shellDescriptor(mock)))

	out := reg.Dispatch(context.Background(), streamtool.StructuredCall{
		Tool:       "shell",
		Positional: []any{"df -h"},
	})
	assert.Equal(t, streamtool.StatusSuccess, out.Status)
	assert.Equal(t, "ran: df -h", out.Content)
	assert.NotEmpty(t, out.CallID)
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "df -h", mock.Calls[0]["command"])
}

func TestDispatch_UnknownTool(t *testing.T) {
	reg := streamtool.NewRegistry()
	out := reg.Dispatch(context.Background(), streamtool.StructuredCall{Tool: "nope"})
	assert.Equal(t, streamtool.StatusUnknownTool, out.Status)
	assert.Contains(t, out.Message, "nope")
	assert.NotEmpty(t, out.CallID)
}

func TestDispatch_ValidationError(t *testing.T) {
	mock := &testutil.MockCapability{}
	reg := streamtool.NewRegistry()
	require.NoError(t, reg.Register(shellDescriptor(mock)))

	// Missing the required parameter.
	out := reg.Dispatch(context.Background(), streamtool.StructuredCall{Tool: "shell"})
	assert.Equal(t, streamtool.StatusValidationError, out.Status)
	assert.NotEmpty(t, out.Message)
	// The capability never runs on a validation failure.
	assert.Empty(t, mock.Calls)
}

func TestDispatch_ExecutionError(t *testing.T) {
	mock := &testutil.MockCapability{
		RunFn: func(context.Context, map[string]any) (*streamtool.Result, error) {
			return nil, errors.New("disk on fire")
		},
	}
	reg := streamtool.NewRegistry()
	require.NoError(t, reg.Register(shellDescriptor(mock)))

	out := reg.Dispatch(context.Background(), streamtool.StructuredCall{
		Tool:       "shell",
		Positional: []any{"ls"},
	})
	assert.Equal(t, streamtool.StatusExecutionError, out.Status)
	assert.Equal(t, "disk on fire", out.Message)
}

func TestDispatch_PanicBecomesExecutionError(t *testing.T) {
	mock := &testutil.MockCapability{
		RunFn: func(context.Context, map[string]any) (*streamtool.Result, error) {
			panic("boom")
		},
	}
	reg := streamtool.NewRegistry()
	require.NoError(t, reg.Register(shellDescriptor(mock)))

	out := reg.Dispatch(context.Background(), streamtool.StructuredCall{
		Tool:       "shell",
		Positional: []any{"ls"},
	})
	assert.Equal(t, streamtool.StatusExecutionError, out.Status)
	// Panic details stay out of the spliced text.
	assert.Equal(t, "internal error", out.Message)
}

func TestDispatch_Timeout(t *testing.T) {
	mock := &testutil.MockCapability{
		RunFn: func(ctx context.Context, _ map[string]any) (*streamtool.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	desc := shellDescriptor(mock)
	desc.Timeout = 20 * time.Millisecond

	reg := streamtool.NewRegistry()
	require.NoError(t, reg.Register(desc))

	out := reg.Dispatch(context.Background(), streamtool.StructuredCall{
		Tool:       "shell",
		Positional: []any{"sleep 60"},
	})
	assert.Equal(t, streamtool.StatusTimeout, out.Status)
	assert.Contains(t, out.Message, "exceeded")
}

func TestDispatch_CancelledParentContext(t *testing.T) {
	started := make(chan struct{})
	mock := &testutil.MockCapability{
		RunFn: func(ctx context.Context, _ map[string]any) (*streamtool.Result, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	reg := streamtool.NewRegistry()
	require.NoError(t, reg.Register(shellDescriptor(mock)))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	out := reg.Dispatch(ctx, streamtool.StructuredCall{
		Tool:       "shell",
		Positional: []any{"ls"},
	})
	assert.Equal(t, streamtool.StatusCancelled, out.Status)
}
