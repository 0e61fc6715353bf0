package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *App) newRotateCommand() *cobra.Command {
	rotate := &cobra.Command{
		Use:   "rotate",
		Short: "Manage the single-monitor rotation cursor",
	}
	rotate.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Discard the persisted rotation cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOrchestrator(); err != nil {
				return err
			}
			if err := a.orchestrator.ResetRotation(); err != nil {
				return err
			}
			cmd.Println(color.GreenString("✓") + " rotation cursor reset; next `darkwall generate` starts from the first configured monitor")
			return nil
		},
	})
	return rotate
}
