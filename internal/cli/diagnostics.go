package cli

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/veighnsche/darkwall/pkg/edge"
	"github.com/veighnsche/darkwall/pkg/types"
)

// diagnosticLogger emits one structured JSON line per run via logrus, the
// ecosystem structured-logging library this project adopts from the
// kiosk404-echoryn pack member (see DESIGN.md) rather than the teacher's
// bare log.Printf calls.
var diagnosticLogger = newDiagnosticLogger()

func newDiagnosticLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}

// runDiagnostic tracks one command invocation and emits a DiagnosticEvent
// on Finish.
type runDiagnostic struct {
	event   edge.DiagnosticEvent
	started time.Time
}

func startDiagnostic(command string) *runDiagnostic {
	return &runDiagnostic{
		event: edge.DiagnosticEvent{
			RunID:     uuid.NewString(),
			Command:   command,
			StartedAt: time.Now(),
		},
		started: time.Now(),
	}
}

func (d *runDiagnostic) withResult(monitor, theme string, result error) {
	d.event.Monitor = monitor
	d.event.Theme = theme
	d.event.ExitCode = exitCodeFor(result)
	if code, ok := types.CodeOf(result); ok {
		d.event.ErrorCode = string(code)
	}
}

func (d *runDiagnostic) finish() {
	d.event.DurationMS = time.Since(d.started).Milliseconds()
	diagnosticLogger.WithFields(logrus.Fields{
		"run_id":      d.event.RunID,
		"command":     d.event.Command,
		"monitor":     d.event.Monitor,
		"theme":       d.event.Theme,
		"exit_code":   d.event.ExitCode,
		"error_code":  d.event.ErrorCode,
		"duration_ms": d.event.DurationMS,
	}).Info("darkwall run complete")
}
