package pipeline

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/veighnsche/darkwall/pkg/atoms"
	"github.com/veighnsche/darkwall/pkg/edge"
	"github.com/veighnsche/darkwall/pkg/template"
	"github.com/veighnsche/darkwall/pkg/types"
	"github.com/veighnsche/darkwall/pkg/workflow"
)

// Plan is the fully-resolved result of spec §4.8 steps 4-8: everything
// needed to drive generation, or — in dry-run mode — everything needed
// to describe what *would* have been generated.
type Plan struct {
	Monitor          string
	Theme            string
	TemplateFile     string
	WorkflowID       string
	WorkflowPath     string
	Seed             uint64
	Prompt           types.PromptResult
	InjectedWorkflow any
	OutputPath       string
	SetterCommand    string
}

// buildPlan performs steps 6-8 of spec §4.8: resolve the workflow,
// select and resolve a template, and inject the result into the
// workflow document.
func (o *Orchestrator) buildPlan(theme ThemeDefinition, target MonitorTarget, resolution, monitorName string, baseSeed uint64) (Plan, error) {
	registry := o.registryFor(theme)
	workflowTheme := types.Theme{
		Name:           theme.Name,
		AtomsRoot:      theme.AtomsRoot,
		PromptsRoot:    theme.PromptsRoot,
		WorkflowPrefix: theme.WorkflowPrefix,
	}
	doc, workflowID, err := registry.Load(workflowTheme, resolution)
	if err != nil {
		return Plan{}, err
	}

	allTemplates, err := o.listTemplates(theme)
	if err != nil {
		return Plan{}, err
	}
	if len(target.Templates) > 0 {
		allTemplates = intersect(allTemplates, target.Templates)
	}
	eligible := registry.EligibleTemplates(workflowID, allTemplates)

	templateFile, err := workflow.SelectTemplate(eligible, baseSeed)
	if err != nil {
		return Plan{}, err
	}

	templateText, err := os.ReadFile(filepath.Join(theme.PromptsRoot, templateFile))
	if err != nil {
		return Plan{}, types.Wrap(types.ErrTemplateSyntax, "pipeline.buildPlan", err)
	}

	parsed, err := template.Parse(string(templateText))
	if err != nil {
		return Plan{}, err
	}

	store := o.atomStoreFor(theme)
	resolved, err := template.Resolve(parsed, store, baseSeed)
	if err != nil {
		return Plan{}, err
	}

	injected, _, err := workflow.Inject(doc, resolved.Result)
	if err != nil {
		return Plan{}, err
	}

	setterCommand, err := edge.DescribeCommand(target.Command, target.Custom, target.Output, monitorName)
	if err != nil {
		return Plan{}, types.Wrap(types.ErrConfigInvalid, "pipeline.buildPlan", err)
	}

	return Plan{
		Monitor:          monitorName,
		Theme:            theme.Name,
		TemplateFile:     templateFile,
		WorkflowID:       workflowID,
		WorkflowPath:     filepath.Join(o.deps.ConfigRoot, "workflows", workflowID+".json"),
		Seed:             baseSeed,
		Prompt:           resolved.Result,
		InjectedWorkflow: injected,
		OutputPath:       target.Output,
		SetterCommand:    setterCommand,
	}, nil
}

func (o *Orchestrator) registryFor(theme ThemeDefinition) *workflow.Registry {
	if o.registries == nil {
		o.registries = make(map[string]*workflow.Registry)
	}
	if r, ok := o.registries[theme.Name]; ok {
		return r
	}
	r := workflow.NewRegistry(o.deps.ConfigRoot, o.deps.WorkflowConfigs)
	o.registries[theme.Name] = r
	return r
}

func (o *Orchestrator) atomStoreFor(theme ThemeDefinition) *atoms.Store {
	if o.atomStores == nil {
		o.atomStores = make(map[string]*atoms.Store)
	}
	if s, ok := o.atomStores[theme.Name]; ok {
		return s
	}
	s := atoms.New(theme.AtomsRoot)
	o.atomStores[theme.Name] = s
	return s
}

func (o *Orchestrator) listTemplates(theme ThemeDefinition) ([]string, error) {
	if o.deps.TemplateLister != nil {
		return o.deps.TemplateLister(theme)
	}
	entries, err := os.ReadDir(theme.PromptsRoot)
	if err != nil {
		return nil, types.Wrap(types.ErrWorkflowMissing, "pipeline.listTemplates", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".prompt" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func intersect(all, allowlist []string) []string {
	allowed := make(map[string]bool, len(allowlist))
	for _, t := range allowlist {
		allowed[t] = true
	}
	var out []string
	for _, t := range all {
		if allowed[t] {
			out = append(out, t)
		}
	}
	return out
}
