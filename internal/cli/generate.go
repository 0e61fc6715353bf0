package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/veighnsche/darkwall/pkg/pipeline"
)

func (a *App) newGenerateCommand() *cobra.Command {
	var all bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and install a wallpaper",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOrchestrator(); err != nil {
				return err
			}
			ctx := cmd.Context()
			diag := startDiagnostic("generate")
			defer diag.finish()

			if dryRun {
				plan, err := a.orchestrator.DryRun(ctx, a.monitorOrder)
				diag.withResult(plan.Monitor, plan.Theme, err)
				if err != nil {
					return err
				}
				printPlan(cmd, plan)
				return nil
			}

			if all {
				results, errs := a.orchestrator.RunAll(ctx, a.monitorOrder)
				outcome := reportAll(cmd, results, errs)
				diag.withResult("", "", outcome)
				return outcome
			}

			result, err := a.orchestrator.RunSingle(ctx, a.monitorOrder)
			if err != nil {
				diag.withResult(result.Monitor, result.Theme, err)
				return err
			}
			printRunResult(cmd, result)
			diag.withResult(result.Monitor, result.Theme, result.SetterErr)
			return result.SetterErr
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "generate a wallpaper for every connected monitor, ignoring rotation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve the plan without generating, saving, or setting anything")
	return cmd
}

// reportAll prints every monitor's outcome and returns the first hard
// error, or — when every monitor otherwise succeeded — the first
// non-fatal setter error, so --all still exits 5 when a setter failed
// but nothing else did (spec §6.2/§7).
func reportAll(cmd *cobra.Command, results []pipeline.RunResult, errs []error) error {
	var firstHardErr, firstSetterErr error
	for i, result := range results {
		if err := errs[i]; err != nil {
			cmd.PrintErrln(renderError(err))
			if firstHardErr == nil {
				firstHardErr = err
			}
			continue
		}
		printRunResult(cmd, result)
		if result.SetterErr != nil && firstSetterErr == nil {
			firstSetterErr = result.SetterErr
		}
	}
	if firstHardErr != nil {
		return firstHardErr
	}
	return firstSetterErr
}

func printRunResult(cmd *cobra.Command, result pipeline.RunResult) {
	cmd.Println(color.GreenString("✓") + fmt.Sprintf(" %s: %s/%s -> %s", result.Monitor, result.Theme, result.Template, result.OutputPath))
	if result.SetterErr != nil {
		cmd.PrintErrln(color.YellowString("⚠") + fmt.Sprintf(" %s: wallpaper saved but setter failed: %v", result.Monitor, result.SetterErr))
	}
}

func printPlan(cmd *cobra.Command, plan pipeline.Plan) {
	cmd.Println(color.CyanString("dry run") + fmt.Sprintf(" %s: theme=%s template=%s workflow=%s (%s) seed=%d",
		plan.Monitor, plan.Theme, plan.TemplateFile, plan.WorkflowID, plan.WorkflowPath, plan.Seed))
	cmd.Println("  output: " + plan.OutputPath)
	cmd.Println("  setter: " + plan.SetterCommand)

	names := make([]string, 0, len(plan.Prompt.Prompts))
	for name := range plan.Prompt.Prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Println(fmt.Sprintf("  %s: %s", name, plan.Prompt.Prompts[name]))
		if neg := plan.Prompt.Negative(name); neg != "" {
			cmd.Println(fmt.Sprintf("  %s:negative: %s", name, neg))
		}
	}
}
