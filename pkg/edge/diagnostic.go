package edge

import "time"

// DiagnosticEvent is the one structured log record emitted per run (spec
// §7 propagation policy): the run's outcome, its total duration, and the
// error kind if any. Timings has room for per-component durations, but
// internal/cli neither fills nor logs it.
type DiagnosticEvent struct {
	RunID      string         `json:"run_id"`
	Command    string         `json:"command"`
	Monitor    string         `json:"monitor,omitempty"`
	Theme      string         `json:"theme,omitempty"`
	ExitCode   int            `json:"exit_code"`
	ErrorCode  string         `json:"error_code,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	Timings    map[string]int64 `json:"timings,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
}
