package streamtool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOutcome_Render_Success(t *testing.T) {
	o := Outcome{Tool: "shell", Status: StatusSuccess, Content: "hi\n"}
	assert.Equal(t, "hi\n", o.Render())
}

func TestOutcome_Render_Error(t *testing.T) {
	o := Outcome{Tool: "shell", Status: StatusTimeout, Message: "exceeded 5s"}
	assert.Equal(t, "[tool shell timeout: exceeded 5s]", o.Render())
}

func TestOutcome_Render_NoToolName(t *testing.T) {
	o := Outcome{Status: StatusValidationError, Message: "expected '{' after marker"}
	assert.Equal(t, "[tool call validation_error: expected '{' after marker]", o.Render())
}
