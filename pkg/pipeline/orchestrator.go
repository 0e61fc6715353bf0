// Package pipeline wires the Seed Source, Atom Store, Template Engine,
// Theme Scheduler, Workflow Registry & Injector, Generation Driver, and
// Rotation State into complete single-monitor and all-monitors runs,
// mirroring the teacher's internal/cli.App composition root as a library
// type driven by the CLI layer rather than a REST daemon.
package pipeline

import (
	"context"
	"time"

	"github.com/veighnsche/darkwall/pkg/atoms"
	"github.com/veighnsche/darkwall/pkg/edge"
	"github.com/veighnsche/darkwall/pkg/generation"
	"github.com/veighnsche/darkwall/pkg/rotation"
	"github.com/veighnsche/darkwall/pkg/schedule"
	"github.com/veighnsche/darkwall/pkg/seed"
	"github.com/veighnsche/darkwall/pkg/types"
	"github.com/veighnsche/darkwall/pkg/workflow"
)

// MonitorTarget is one configured monitor binding, narrowed to what the
// orchestrator needs. internal/cli builds it from the config layer's
// MonitorConfig, resolving the command into Command/Custom, so the
// orchestrator never imports internal/config.
type MonitorTarget struct {
	Name       string
	Resolution string
	Output     string
	Command    edge.SetterKind
	Custom     string
	Templates  []string
}

// ThemeDefinition is one configured theme's content roots, independent
// of internal/config to keep pkg/pipeline importable by tests without a
// YAML fixture.
type ThemeDefinition struct {
	Name            string
	AtomsRoot       string
	PromptsRoot     string
	WorkflowPrefix  string
	DefaultTemplate string
}

// Deps collects every collaborator the orchestrator drives. The edge
// collaborators (Monitors, Output, Setters, Notifier, History) are narrow
// interfaces so tests substitute fakes; Seed, Scheduler, Rotation and
// Generation are the concrete pipeline types.
type Deps struct {
	Seed       *seed.Source
	Scheduler  *schedule.Scheduler
	Rotation   *rotation.Manager
	Generation *generation.Client

	Monitors edge.MonitorDetector
	Output   edge.OutputWriter
	Setters  map[string]edge.Setter // keyed by monitor name
	Notifier edge.Notifier
	History  edge.HistorySink

	Themes          map[string]ThemeDefinition
	MonitorTargets  map[string]MonitorTarget
	WorkflowConfigs map[string]workflow.Binding
	TemplateLister  func(theme ThemeDefinition) ([]string, error)
	ConfigRoot      string

	Now func() time.Time
}

// Orchestrator drives complete pipeline runs.
type Orchestrator struct {
	deps Deps

	// registries and atomStores cache one workflow.Registry and
	// atoms.Store per theme for the process lifetime, the same
	// lazy-cache-behind-a-map idiom pkg/atoms itself uses.
	registries map[string]*workflow.Registry
	atomStores map[string]*atoms.Store
}

// New returns an Orchestrator over deps.
func New(deps Deps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps}
}

// RunResult describes one monitor's completed run, for CLI reporting and
// history/notification fan-out.
type RunResult struct {
	Monitor    string
	Theme      string
	Template   string
	WorkflowID string
	Seed       uint64
	OutputPath string
	SetterErr  error
}

// RunSingle performs the single-monitor flow (spec §4.8 steps 1-11):
// reconcile connected/configured monitors, consult rotation state,
// derive the seed, pick the theme, resolve the workflow/template/prompt,
// inject, generate, save, set, notify, record history, and advance the
// rotation cursor.
func (o *Orchestrator) RunSingle(ctx context.Context, configuredOrder []string) (RunResult, error) {
	connected, err := o.deps.Monitors.Detect(ctx)
	if err != nil {
		return RunResult{}, err
	}
	available := reconcile(configuredOrder, connected, o.deps.MonitorTargets)
	if len(available) == 0 {
		return RunResult{}, types.NewError(types.ErrMonitorDetectFailed, "pipeline.RunSingle",
			"no configured monitor is currently connected")
	}

	name := o.deps.Rotation.Next(available)
	result, err := o.runForMonitor(ctx, name)
	if err != nil {
		return result, err
	}
	if err := o.deps.Rotation.Record(name, available, o.deps.Now()); err != nil {
		return result, err
	}
	return result, nil
}

// RunAll performs the all-monitors flow (spec §4.8): steps 4-10 for each
// configured, connected monitor in order, without advancing the cursor.
// A failure on one monitor is returned in the result list and iteration
// continues.
func (o *Orchestrator) RunAll(ctx context.Context, configuredOrder []string) ([]RunResult, []error) {
	connected, err := o.deps.Monitors.Detect(ctx)
	if err != nil {
		return nil, []error{err}
	}
	available := reconcile(configuredOrder, connected, o.deps.MonitorTargets)

	var results []RunResult
	var errs []error
	for _, name := range available {
		result, err := o.runForMonitor(ctx, name)
		results = append(results, result)
		errs = append(errs, err)
	}
	return results, errs
}

// reconcile keeps configured names that are also present among connected
// monitors, preserving configuredOrder (spec §4.8 step 2). Names present
// on only one side are skipped; no warning is emitted for them.
func reconcile(configuredOrder []string, connected []types.Monitor, targets map[string]MonitorTarget) []string {
	connectedSet := make(map[string]bool, len(connected))
	for _, m := range connected {
		connectedSet[m.Name] = true
	}
	var available []string
	for _, name := range configuredOrder {
		if _, configured := targets[name]; !configured {
			continue
		}
		if connectedSet[name] {
			available = append(available, name)
		}
	}
	return available
}

// resolvePlan performs spec §4.8 steps 4-8 for monitorName: derive the
// seed, pick the active theme, resolve the workflow/template/prompt, and
// inject. Shared by runForMonitor and DryRun.
func (o *Orchestrator) resolvePlan(monitorName string) (Plan, ThemeDefinition, MonitorTarget, error) {
	target, ok := o.deps.MonitorTargets[monitorName]
	if !ok {
		return Plan{}, ThemeDefinition{}, MonitorTarget{}, types.NewError(types.ErrConfigInvalid, "pipeline.resolvePlan",
			"monitor "+monitorName+" has no configured binding")
	}

	now := o.deps.Now()
	baseSeed := o.deps.Seed.Seed(now, monitorName)

	themeName, err := o.deps.Scheduler.ActiveTheme(now, baseSeed)
	if err != nil {
		return Plan{}, ThemeDefinition{}, target, err
	}
	theme, ok := o.deps.Themes[themeName]
	if !ok {
		return Plan{}, ThemeDefinition{}, target, types.NewError(types.ErrConfigInvalid, "pipeline.resolvePlan",
			"active theme "+themeName+" is not configured")
	}

	plan, err := o.buildPlan(theme, target, target.Resolution, monitorName, baseSeed)
	if err != nil {
		return Plan{}, theme, target, err
	}
	return plan, theme, target, nil
}

// DryRun performs spec §4.8's dry-run mode: steps 1-8 execute, nothing
// is generated, saved, set, or recorded. The caller renders Plan as the
// structured plan the CLI reports.
func (o *Orchestrator) DryRun(ctx context.Context, configuredOrder []string) (Plan, error) {
	connected, err := o.deps.Monitors.Detect(ctx)
	if err != nil {
		return Plan{}, err
	}
	available := reconcile(configuredOrder, connected, o.deps.MonitorTargets)
	if len(available) == 0 {
		return Plan{}, types.NewError(types.ErrMonitorDetectFailed, "pipeline.DryRun",
			"no configured monitor is currently connected")
	}

	name := o.deps.Rotation.Next(available)
	plan, _, _, err := o.resolvePlan(name)
	return plan, err
}

// StatusReport is the read-only snapshot `darkwall status` renders.
type StatusReport struct {
	Phase       types.Phase
	Mixture     schedule.Mixture
	NextMonitor string
}

// Status reports the schedule phase/mixture for now and the monitor the
// rotation cursor currently points at, with no side effects (spec §9).
func (o *Orchestrator) Status(now time.Time, configuredOrder []string) (StatusReport, error) {
	phase, mixture, err := o.deps.Scheduler.Status(now)
	if err != nil {
		return StatusReport{}, err
	}
	next := o.deps.Rotation.Next(configuredOrder)
	return StatusReport{Phase: phase, Mixture: mixture, NextMonitor: next}, nil
}

// ResetRotation discards the persisted rotation cursor (spec §4.6
// reset), for the `darkwall rotate reset` command.
func (o *Orchestrator) ResetRotation() error {
	return o.deps.Rotation.Reset()
}

func (o *Orchestrator) runForMonitor(ctx context.Context, monitorName string) (RunResult, error) {
	plan, theme, target, err := o.resolvePlan(monitorName)
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{
		Monitor:    monitorName,
		Theme:      theme.Name,
		Template:   plan.TemplateFile,
		WorkflowID: plan.WorkflowID,
		Seed:       plan.Seed,
		OutputPath: target.Output,
	}

	genResult, err := o.deps.Generation.Generate(ctx, plan.InjectedWorkflow)
	if err != nil {
		return result, err
	}

	if err := o.deps.Output.Save(target.Output, genResult.Image); err != nil {
		return result, err
	}

	if setter, ok := o.deps.Setters[monitorName]; ok {
		if err := setter.Apply(ctx, target.Output, monitorName); err != nil {
			result.SetterErr = err
		}
	}

	if o.deps.Notifier != nil {
		_ = o.deps.Notifier.Notify("darkwall", "new wallpaper generated for "+monitorName)
	}
	if o.deps.History != nil {
		_ = o.deps.History.Append(edge.HistoryRecord{
			Timestamp:       o.deps.Now(),
			Monitor:         monitorName,
			Theme:           theme.Name,
			Template:        plan.TemplateFile,
			WorkflowID:      plan.WorkflowID,
			Seed:            plan.Seed,
			OutputPath:      target.Output,
			PositivePrompts: plan.Prompt.Prompts,
			NegativePrompts: plan.Prompt.Negatives,
			Image:           genResult.Image,
		})
	}

	return result, nil
}

