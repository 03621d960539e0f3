package streamtool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScanner(tools ...string) *scanner {
	set := make(map[string]bool, len(tools))
	for _, t := range tools {
		set[t] = true
	}
	return &scanner{
		marker: DefaultMarker,
		isTool: func(name string) bool { return set[name] },
		isToolPrefix: func(fragment string) bool {
			for name := range set {
				if len(fragment) <= len(name) && name[:len(fragment)] == fragment {
					return true
				}
			}
			return false
		},
	}
}

func TestScanner_PlainText(t *testing.T) {
	sc := newTestScanner("shell")
	res := sc.scan("just some prose. ")
	require.Equal(t, scanNoCall, res.kind)
	assert.Equal(t, len("just some prose. "), res.safe)
}

func TestScanner_InlineComplete(t *testing.T) {
	sc := newTestScanner("shell")
	res := sc.scan(`before shell("df -h") after`)
	require.Equal(t, scanComplete, res.kind)
	assert.Equal(t, formInline, res.call.form)
	assert.Equal(t, "shell", res.call.name)
	assert.Equal(t, `"df -h"`, res.call.args)
	assert.Equal(t, len("before "), res.call.start)
	assert.Equal(t, len(`before shell("df -h")`), res.call.end)
}

func TestScanner_InlineSpacesBeforeParen(t *testing.T) {
	sc := newTestScanner("shell")
	res := sc.scan(`shell ("ls")`)
	require.Equal(t, scanComplete, res.kind)
	assert.Equal(t, "shell", res.call.name)
	assert.Equal(t, `"ls"`, res.call.args)
}

func TestScanner_ParensInsideQuotedLiteral(t *testing.T) {
	sc := newTestScanner("shell")
	res := sc.scan(`shell("echo (hello)") tail`)
	require.Equal(t, scanComplete, res.kind)
	assert.Equal(t, `"echo (hello)"`, res.call.args)
	assert.Equal(t, len(`shell("echo (hello)")`), res.call.end)
}

func TestScanner_TripleQuotedMultiline(t *testing.T) {
	sc := newTestScanner("file_write")
	buf := "file_write(\"a.txt\", \"\"\"line (one)\nline ) two\n\"\"\")"
	res := sc.scan(buf)
	require.Equal(t, scanComplete, res.kind)
	assert.Equal(t, len(buf), res.call.end)
}

func TestScanner_UnknownIdentifierIsProse(t *testing.T) {
	sc := newTestScanner("shell")
	res := sc.scan("print(1, 2) done.")
	require.Equal(t, scanNoCall, res.kind)
	assert.Equal(t, len("print(1, 2) done."), res.safe)
}

func TestScanner_RegisteredCallInsideUnknownCall(t *testing.T) {
	sc := newTestScanner("shell")
	res := sc.scan(`print(shell("ls"))`)
	require.Equal(t, scanComplete, res.kind)
	assert.Equal(t, "shell", res.call.name)
	assert.Equal(t, len("print("), res.call.start)
}

func TestScanner_IncompleteNotNoCall(t *testing.T) {
	sc := newTestScanner("shell")

	res := sc.scan(`leading shell("ec`)
	require.Equal(t, scanIncomplete, res.kind)
	assert.Equal(t, len("leading "), res.safe)

	// Ends inside a quoted literal spanning the boundary.
	res = sc.scan("shell(\"echo hi")
	require.Equal(t, scanIncomplete, res.kind)
	assert.Equal(t, 0, res.safe)
}

func TestScanner_WordBoundary(t *testing.T) {
	sc := newTestScanner("shell")
	// "myshell" is a maximal word run; it must not match "shell".
	res := sc.scan(`myshell("ls") end.`)
	require.Equal(t, scanNoCall, res.kind)
	assert.Equal(t, len(`myshell("ls") end.`), res.safe)
}

func TestScanner_MarkerComplete(t *testing.T) {
	sc := newTestScanner()
	buf := `pre TOOL_CALL: {"tool": "shell", "input_schema": {"command": "ls"}} post`
	res := sc.scan(buf)
	require.Equal(t, scanComplete, res.kind)
	assert.Equal(t, formMarker, res.call.form)
	assert.Equal(t, `{"tool": "shell", "input_schema": {"command": "ls"}}`, res.call.args)
	assert.Equal(t, len("pre "), res.call.start)
}

func TestScanner_MarkerBracesInsideJSONString(t *testing.T) {
	sc := newTestScanner()
	buf := `TOOL_CALL:{"tool": "shell", "input_schema": {"command": "echo {not a brace}"}}`
	res := sc.scan(buf)
	require.Equal(t, scanComplete, res.kind)
	assert.Equal(t, len(buf), res.call.end)
}

func TestScanner_MarkerIncomplete(t *testing.T) {
	sc := newTestScanner()

	res := sc.scan(`TOOL_CALL:{"tool": "sh`)
	require.Equal(t, scanIncomplete, res.kind)

	// Marker present, JSON not started yet.
	res = sc.scan("TOOL_CALL: ")
	require.Equal(t, scanIncomplete, res.kind)
}

func TestScanner_MarkerMalformed(t *testing.T) {
	sc := newTestScanner()
	res := sc.scan("TOOL_CALL: nope")
	require.Equal(t, scanComplete, res.kind)
	assert.NotEmpty(t, res.call.malformed)
	assert.Equal(t, 0, res.call.start)
	// The offending text stays in the buffer for rescanning.
	assert.Equal(t, len("TOOL_CALL: "), res.call.end)
}

func TestScanner_FirstCandidateWins(t *testing.T) {
	sc := newTestScanner("shell")
	buf := `shell("a") TOOL_CALL:{"tool": "shell", "input_schema": {}}`
	res := sc.scan(buf)
	require.Equal(t, scanComplete, res.kind)
	assert.Equal(t, formInline, res.call.form)

	buf = `TOOL_CALL:{"tool": "shell", "input_schema": {}} shell("a")`
	res = sc.scan(buf)
	require.Equal(t, scanComplete, res.kind)
	assert.Equal(t, formMarker, res.call.form)
}

func TestScanner_Holdback(t *testing.T) {
	sc := newTestScanner("shell")

	// Partial marker at the end must stay buffered.
	res := sc.scan("text TOOL_CA")
	require.Equal(t, scanNoCall, res.kind)
	assert.Equal(t, len("text "), res.safe)

	// Trailing fragment of a registered tool name must stay buffered.
	res = sc.scan("run she")
	require.Equal(t, scanNoCall, res.kind)
	assert.Equal(t, len("run "), res.safe)

	// Full tool name waiting for its paren, even across spaces.
	res = sc.scan("run shell ")
	require.Equal(t, scanNoCall, res.kind)
	assert.Equal(t, len("run "), res.safe)

	// A word that prefixes no tool name is safe to emit.
	res = sc.scan("we are done after")
	require.Equal(t, scanNoCall, res.kind)
	assert.Equal(t, len("we are done after"), res.safe)
}
