// Package cli implements darkwall's command-line interface: command
// parsing, pipeline wiring, error rendering, and exit-code selection,
// grounded on the teacher's internal/cli.App composition-root role.
package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/veighnsche/darkwall/internal/config"
	"github.com/veighnsche/darkwall/pkg/edge"
	"github.com/veighnsche/darkwall/pkg/generation"
	"github.com/veighnsche/darkwall/pkg/pipeline"
	"github.com/veighnsche/darkwall/pkg/rotation"
	"github.com/veighnsche/darkwall/pkg/schedule"
	"github.com/veighnsche/darkwall/pkg/seed"
	"github.com/veighnsche/darkwall/pkg/version"
	"github.com/veighnsche/darkwall/pkg/workflow"
)

// App wires a loaded configuration into a pipeline.Orchestrator and
// exposes it through a Cobra command tree. loadErr is kept (rather than
// failing construction outright) so `darkwall version` and
// `darkwall config validate` still work against a broken configuration;
// every other command checks loadErr first.
type App struct {
	cfg          *config.Config
	orchestrator *pipeline.Orchestrator
	monitorOrder []string
	rootCmd      *cobra.Command
	loadErr      error
}

// NewApp loads path (defaulting to the well-known config location when
// empty) and wires every collaborator. A load/wiring failure is recorded
// on the App rather than returned, so commands that don't need a working
// pipeline (version, config validate) still run.
func NewApp(path string) *App {
	if path == "" {
		path = defaultConfigPath()
	}
	app := &App{}
	cfg, err := config.Load(path)
	if err != nil {
		app.loadErr = err
		app.buildCommands()
		return app
	}
	app.cfg = cfg
	app.monitorOrder = cfg.MonitorNames()
	if err := app.wire(); err != nil {
		app.loadErr = err
	}
	app.buildCommands()
	return app
}

// requireOrchestrator returns loadErr if the pipeline never wired
// successfully, so every generate/rotate/status RunE can open with it.
func (a *App) requireOrchestrator() error {
	if a.orchestrator == nil {
		return a.loadErr
	}
	return nil
}

// defaultConfigPath mirrors the teacher's $HOME/.<tool>/ convention and
// its CWSD_URL-style environment override.
func defaultConfigPath() string {
	if env := os.Getenv("DARKWALL_CONFIG"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "darkwall.yaml"
	}
	return filepath.Join(home, ".config", "darkwall", "darkwall.yaml")
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".darkwall"
	}
	return filepath.Join(home, ".local", "state", "darkwall")
}

func (a *App) wire() error {
	seedSrc, err := seed.NewSource(a.cfg.TimeSlotMinutes, a.cfg.UseMonitorSeed)
	if err != nil {
		return err
	}
	genClient, err := generation.NewClient(a.cfg.Service.BaseURL, a.cfg.Service.Timeout, a.cfg.Service.PollInterval)
	if err != nil {
		return err
	}

	statePath := a.cfg.StatePath
	if statePath == "" {
		statePath = filepath.Join(stateDir(), "rotation.json")
	}
	historyPath := a.cfg.HistoryPath
	if historyPath == "" {
		historyPath = filepath.Join(stateDir(), "history.jsonl")
	}

	themes := make(map[string]pipeline.ThemeDefinition, len(a.cfg.Themes))
	for _, t := range a.cfg.Themes {
		atomsRoot := filepath.Join(a.cfg.AtomsRoot, t.Name)
		promptsRoot := filepath.Join(a.cfg.PromptsRoot, t.Name)
		themes[t.Name] = pipeline.ThemeDefinition{
			Name:            t.Name,
			AtomsRoot:       atomsRoot,
			PromptsRoot:     promptsRoot,
			WorkflowPrefix:  t.WorkflowPrefix,
			DefaultTemplate: t.DefaultTemplate,
		}
	}

	targets := make(map[string]pipeline.MonitorTarget, len(a.cfg.Monitors))
	setters := make(map[string]edge.Setter, len(a.cfg.Monitors))
	for _, m := range a.cfg.Monitors {
		kind, custom := resolveSetterCommand(m.Command)
		targets[m.Name] = pipeline.MonitorTarget{
			Name:       m.Name,
			Resolution: m.Resolution,
			Output:     m.Output,
			Command:    kind,
			Custom:     custom,
			Templates:  m.Templates,
		}
		if kind != "" {
			setters[m.Name] = edge.NewCommandSetter(kind, custom)
		}
	}

	bindings := make(map[string]workflow.Binding, len(a.cfg.Workflows))
	for id, w := range a.cfg.Workflows {
		bindings[id] = workflow.Binding{Prompts: w.Prompts}
	}

	a.orchestrator = pipeline.New(pipeline.Deps{
		Seed:            seedSrc,
		Scheduler:       schedule.New(a.cfg.Schedule),
		Rotation:        rotation.NewManager(statePath),
		Generation:      genClient,
		Monitors:        edge.NewCompositorDetector(),
		Output:          edge.FileOutputWriter{},
		Setters:         setters,
		Notifier:        edge.NewDBusNotifier("darkwall"),
		History:         edge.NewJSONLHistorySink(historyPath),
		Themes:          themes,
		MonitorTargets:  targets,
		WorkflowConfigs: bindings,
		ConfigRoot:      a.cfg.ConfigRoot,
	})
	return nil
}

// knownSetterKinds are the command identifiers recognized as built-in
// setters (spec §9's closed variant); any other non-empty value is
// treated as a custom command template.
var knownSetterKinds = map[string]edge.SetterKind{
	"swaybg":    edge.SetterSwaybg,
	"swww":      edge.SetterSwww,
	"feh":       edge.SetterFeh,
	"nitrogen":  edge.SetterNitrogen,
	"hyprpaper": edge.SetterHyprpaper,
}

// resolveSetterCommand interprets one monitor's configured command
// identifier: a recognized keyword selects a built-in setter, anything
// else is taken as a custom %path%/%monitor% command template.
func resolveSetterCommand(command string) (edge.SetterKind, string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", ""
	}
	if kind, ok := knownSetterKinds[command]; ok {
		return kind, ""
	}
	return edge.SetterCustom, command
}

// Run parses args (os.Args) and executes the matched command, returning
// the process exit code. SIGINT/SIGTERM cancel the command's context so
// an in-flight generation request is cancelled (spec §5).
func (a *App) Run(args []string) int {
	if len(args) > 1 {
		a.rootCmd.SetArgs(args[1:])
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := a.rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	os.Stderr.WriteString(renderError(err) + "\n")
	return exitCodeFor(err)
}

func (a *App) buildCommands() {
	root := &cobra.Command{
		Use:           "darkwall",
		Short:         "Generate and install a wallpaper via a remote ComfyUI-like queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.newGenerateCommand(),
		a.newRotateCommand(),
		a.newStatusCommand(),
		newConfigCommand(),
		newVersionCommand(),
	)
	a.rootCmd = root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the darkwall version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(version.String())
			return nil
		},
	}
}
