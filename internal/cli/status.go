package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// statusLabel and statusPanel style the status report the same way the
// teacher's internal/tui/styles package styles its panel/section text,
// narrowed to the two styles a single non-interactive snapshot needs.
var (
	statusLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	statusPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func (a *App) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the current schedule phase and rotation cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOrchestrator(); err != nil {
				return err
			}
			report, err := a.orchestrator.Status(time.Now(), a.monitorOrder)
			if err != nil {
				return err
			}

			var b strings.Builder
			b.WriteString(statusLabel.Render("phase: ") + string(report.Phase) + "\n")
			b.WriteString(statusLabel.Render("next monitor: ") + report.NextMonitor + "\n")
			b.WriteString(statusLabel.Render("theme mixture:"))

			names := make([]string, 0, len(report.Mixture))
			for name := range report.Mixture {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				b.WriteString(fmt.Sprintf("\n  %-20s %.1f%%", name, report.Mixture[name]*100))
			}

			cmd.Println(statusPanel.Render(b.String()))
			return nil
		},
	}
}
