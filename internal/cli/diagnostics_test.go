package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veighnsche/darkwall/pkg/types"
)

func TestRunDiagnosticEmitsOneJSONLineWithResult(t *testing.T) {
	var buf bytes.Buffer
	orig := diagnosticLogger.Out
	diagnosticLogger.SetOutput(&buf)
	defer diagnosticLogger.SetOutput(orig)

	diag := startDiagnostic("generate")
	require.NotEmpty(t, diag.event.RunID)
	assert.Equal(t, "generate", diag.event.Command)

	err := types.NewError(types.ErrGenerationTimeout, "op", "timed out")
	diag.withResult("DP-1", "dark", err)
	assert.Equal(t, "DP-1", diag.event.Monitor)
	assert.Equal(t, "dark", diag.event.Theme)
	assert.Equal(t, ExitGenerationTimeout, diag.event.ExitCode)
	assert.Equal(t, string(types.ErrGenerationTimeout), diag.event.ErrorCode)

	diag.finish()
	out := buf.String()
	assert.Contains(t, out, `"run_id"`)
	assert.Contains(t, out, `"command":"generate"`)
	assert.Contains(t, out, `"monitor":"DP-1"`)
	assert.Contains(t, out, `"exit_code":4`)
}

func TestRunDiagnosticSuccessHasZeroExitCodeAndNoErrorCode(t *testing.T) {
	diag := startDiagnostic("status")
	diag.withResult("", "", nil)
	assert.Equal(t, ExitSuccess, diag.event.ExitCode)
	assert.Empty(t, diag.event.ErrorCode)
}
