package edge

import (
	"context"
	"fmt"
	"strings"

	"github.com/veighnsche/darkwall/pkg/types"
)

// SetterKind is the closed variant of supported wallpaper-setter
// programs named in spec.md §9.
type SetterKind string

const (
	SetterSwaybg    SetterKind = "swaybg"
	SetterSwww      SetterKind = "swww"
	SetterFeh       SetterKind = "feh"
	SetterNitrogen  SetterKind = "nitrogen"
	SetterHyprpaper SetterKind = "hyprpaper"
	SetterCustom    SetterKind = "custom"
)

// Setter installs a generated image as a monitor's desktop background.
// A Setter failure is logged and mapped to exit code 5; it is never
// fatal to the pipeline (spec §6.2).
type Setter interface {
	Apply(ctx context.Context, path, monitorName string) error
}

// CommandSetter invokes one of the closed setter variants via
// os/exec. CustomTemplate is used only when Kind is SetterCustom; it is
// a shell-style template with %path% and %monitor% placeholders.
type CommandSetter struct {
	Kind           SetterKind
	CustomTemplate string
	Runner         CommandRunner
}

// NewCommandSetter returns a CommandSetter shelling out via the real
// os/exec.
func NewCommandSetter(kind SetterKind, customTemplate string) *CommandSetter {
	return &CommandSetter{Kind: kind, CustomTemplate: customTemplate, Runner: execRunner{}}
}

// Apply runs the setter's install command for path/monitorName.
func (s *CommandSetter) Apply(ctx context.Context, path, monitorName string) error {
	name, args, err := resolveCommand(s.Kind, s.CustomTemplate, path, monitorName)
	if err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.CommandSetter.Apply", err)
	}
	if _, err := s.Runner.Run(ctx, name, args...); err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.CommandSetter.Apply", err)
	}
	return nil
}

// DescribeCommand renders the exact shell command a CommandSetter of the
// given kind would run for path/monitorName, for dry-run display (spec
// §4.8's "intended setter command"). It resolves the same way Apply does,
// including %path%/%monitor% substitution for a custom template. An empty
// kind means no setter is configured for the monitor and yields "".
func DescribeCommand(kind SetterKind, customTemplate, path, monitorName string) (string, error) {
	if kind == "" {
		return "", nil
	}
	name, args, err := resolveCommand(kind, customTemplate, path, monitorName)
	if err != nil {
		return "", err
	}
	return strings.Join(append([]string{name}, args...), " "), nil
}

func resolveCommand(kind SetterKind, customTemplate, path, monitorName string) (string, []string, error) {
	switch kind {
	case SetterSwaybg:
		return "swaybg", []string{"-o", monitorName, "-i", path, "-m", "fill"}, nil
	case SetterSwww:
		return "swww", []string{"img", path, "--outputs", monitorName}, nil
	case SetterFeh:
		return "feh", []string{"--bg-fill", path}, nil
	case SetterNitrogen:
		return "nitrogen", []string{"--set-zoom-fill", path, "--head=" + monitorName}, nil
	case SetterHyprpaper:
		return "hyprctl", []string{"hyprpaper", "wallpaper", monitorName + "," + path}, nil
	case SetterCustom:
		return parseCustomTemplate(customTemplate, path, monitorName)
	default:
		return "", nil, fmt.Errorf("edge.resolveCommand: unknown setter kind %q", kind)
	}
}

// parseCustomTemplate splits a whitespace-separated command template,
// substituting %path% and %monitor% in each field.
func parseCustomTemplate(template, path, monitorName string) (string, []string, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("edge.parseCustomTemplate: empty custom setter command")
	}
	substitute := func(s string) string {
		s = strings.ReplaceAll(s, "%path%", path)
		s = strings.ReplaceAll(s, "%monitor%", monitorName)
		return s
	}
	name := substitute(fields[0])
	args := make([]string, len(fields)-1)
	for i, f := range fields[1:] {
		args[i] = substitute(f)
	}
	return name, args, nil
}
