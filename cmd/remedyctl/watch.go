package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/remedyd/internal/monitor"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of alerts, remediations and approvals",
	Long: `Open a full-screen dashboard that polls the daemon and renders
alert rates, remediation outcomes and the pending approval queue.

Press q to quit, r to refresh immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		model := monitor.NewModel(serverURL, watchInterval)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running dashboard: %w", err)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "poll interval")
}
