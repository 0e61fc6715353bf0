// Package edge contains the narrow-interface collaborator adapters the
// deterministic pipeline depends on only through their interfaces:
// compositor monitor enumeration, output file writing, wallpaper-setter
// invocation, desktop notification, and history logging.
package edge

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/veighnsche/darkwall/pkg/types"
)

// MonitorDetector enumerates currently-connected display outputs. The
// pipeline depends on this interface, never on CompositorDetector
// directly, so tests can substitute a fixed list.
type MonitorDetector interface {
	Detect(ctx context.Context) ([]types.Monitor, error)
}

// CompositorDetector shells out to wlr-randr, falling back to
// hyprctl monitors -j, to enumerate connected outputs. Absence of both
// binaries or a non-zero exit from each is a MonitorDetectFailed error,
// per spec §6.2's "clear, surfaced error" requirement.
type CompositorDetector struct {
	// Runner abstracts process execution for testability; defaults to
	// os/exec.CommandContext via execRunner.
	Runner CommandRunner
}

// CommandRunner executes a named command with args and returns its
// standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// NewCompositorDetector returns a CompositorDetector that shells out via
// the real os/exec.
func NewCompositorDetector() *CompositorDetector {
	return &CompositorDetector{Runner: execRunner{}}
}

// Detect tries wlr-randr first, then hyprctl monitors -j, returning the
// first one that succeeds.
func (d *CompositorDetector) Detect(ctx context.Context) ([]types.Monitor, error) {
	if out, err := d.Runner.Run(ctx, "wlr-randr"); err == nil {
		mons, perr := parseWlrRandr(out)
		if perr == nil {
			return mons, nil
		}
	}

	out, err := d.Runner.Run(ctx, "hyprctl", "monitors", "-j")
	if err != nil {
		return nil, types.Wrap(types.ErrMonitorDetectFailed, "edge.Detect", err)
	}
	mons, err := parseHyprctl(out)
	if err != nil {
		return nil, types.Wrap(types.ErrMonitorDetectFailed, "edge.Detect", err)
	}
	return mons, nil
}

// parseWlrRandr reads wlr-randr's plain-text output:
//
//	DP-1 "Dell Inc. DELL U2718Q"
//	  Modes:
//	    3840x2160 px, 60.000000 Hz (preferred, current)
func parseWlrRandr(out []byte) ([]types.Monitor, error) {
	var monitors []types.Monitor
	var current types.Monitor
	for _, line := range strings.Split(string(out), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			if current.Name != "" {
				monitors = append(monitors, current)
			}
			fields := strings.Fields(trimmed)
			current = types.Monitor{Name: fields[0]}
			continue
		}
		if strings.Contains(trimmed, "current") {
			if res := extractResolution(trimmed); res != "" {
				current.Resolution = res
			}
		}
	}
	if current.Name != "" {
		monitors = append(monitors, current)
	}
	if len(monitors) == 0 {
		return nil, types.NewError(types.ErrMonitorDetectFailed, "edge.parseWlrRandr", "no monitors parsed from wlr-randr output")
	}
	return monitors, nil
}

func extractResolution(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	if strings.Contains(fields[0], "x") {
		return fields[0]
	}
	return ""
}

type hyprctlMonitor struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func parseHyprctl(out []byte) ([]types.Monitor, error) {
	var raw []hyprctlMonitor
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, err
	}
	monitors := make([]types.Monitor, 0, len(raw))
	for _, m := range raw {
		monitors = append(monitors, types.Monitor{
			Name:       m.Name,
			Resolution: strconv.Itoa(m.Width) + "x" + strconv.Itoa(m.Height),
		})
	}
	return monitors, nil
}
