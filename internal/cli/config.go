package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/veighnsche/darkwall/internal/config"
)

// newConfigCommand builds `darkwall config validate`. It is a free
// function, not an App method, since validation must work even when the
// configured file fails to load into a full App.
func newConfigCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the darkwall configuration",
	}
	root.AddCommand(newConfigValidateCommand())
	return root
}

func newConfigValidateCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file against its schema without generating anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = defaultConfigPath()
			}
			if _, err := config.Load(path); err != nil {
				return err
			}
			cmd.Println(color.GreenString("✓") + " " + path + " is valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "path to darkwall.yaml (defaults to the standard config location)")
	return cmd
}
