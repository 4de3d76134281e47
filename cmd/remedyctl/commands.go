package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	alertSeverity string
	alertSource   string
	alertHost     string
	alertLabels   []string

	decisionBy   string
	reason       string
	historyLimit int
	asJSON       bool
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check remedyd daemon health",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := api().Health(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(health)
	},
}

var alertCmd = &cobra.Command{
	Use:   "alert <message>",
	Short: "Submit an alert for remediation",
	Long: `Submit an alert to the daemon for diagnosis and remediation.

Examples:
  # Report high CPU on a host
  remedyctl alert "CPU usage above 95%" --host web-01 --severity critical

  # Attach labels the diagnoser understands
  remedyctl alert "nginx is down" --host web-01 --label service=nginx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		labels := make(map[string]string, len(alertLabels))
		for _, raw := range alertLabels {
			key, value, ok := strings.Cut(raw, "=")
			if !ok {
				return fmt.Errorf("invalid label %q, expected key=value", raw)
			}
			labels[key] = value
		}

		id, err := api().SubmitAlert(cmd.Context(), alertSource, alertSeverity, args[0], alertHost, labels)
		if err != nil {
			return err
		}
		fmt.Printf("Alert accepted: %s\n", id)
		return nil
	},
}

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "Manage pending approvals",
}

var approvalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List actions awaiting approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		pending, err := api().PendingApprovals(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(pending)
		}
		if len(pending) == 0 {
			fmt.Println("No pending approvals.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ACTION ID\tRISK\tAGE\tCOMMAND")
		for _, p := range pending {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				p.ActionID, p.RiskLevel,
				time.Since(p.RequestedAt).Round(time.Second),
				p.Command)
		}
		return w.Flush()
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <action-id>",
	Short: "Approve a pending action and execute it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api().Approve(cmd.Context(), args[0], decider()); err != nil {
			return err
		}
		fmt.Printf("Approved %s\n", args[0])
		return nil
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <action-id>",
	Short: "Reject a pending action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api().Reject(cmd.Context(), args[0], decider(), reason); err != nil {
			return err
		}
		fmt.Printf("Rejected %s\n", args[0])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show engine statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := api().Statistics(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(stats)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Mode:\t%s\n", stats.Mode)
		fmt.Fprintf(w, "Kill switch:\t%v\n", stats.KillSwitch)
		fmt.Fprintf(w, "Total alerts:\t%d\n", stats.TotalAlerts)
		fmt.Fprintf(w, "Auto-remediated:\t%d\n", stats.AutoRemediated)
		fmt.Fprintf(w, "Manual approvals:\t%d\n", stats.ManualApprovals)
		fmt.Fprintf(w, "Failed remediations:\t%d\n", stats.FailedRemediations)
		fmt.Fprintf(w, "Pending approvals:\t%d\n", stats.PendingApprovals)
		fmt.Fprintf(w, "Avg resolution time:\t%.1fs\n", stats.AvgResolutionTime)
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the remediation audit history",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := api().History(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No remediation history.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tREMEDIATION\tALERT\tROOT CAUSE\tACTIONS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%.8s\t%s\t%s\t%d\n",
				e.Timestamp.Format(time.RFC3339),
				e.RemediationID,
				e.Alert.Message,
				e.Diagnosis.RootCause,
				len(e.Actions))
		}
		return w.Flush()
	},
}

var modeCmd = &cobra.Command{
	Use:   "mode <manual|semi_auto|full_auto>",
	Short: "Set the oversight mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api().SetMode(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Mode set to %s\n", args[0])
		return nil
	},
}

var killSwitchCmd = &cobra.Command{
	Use:   "killswitch <on|off>",
	Short: "Control the global kill switch",
	Long: `Control the global kill switch. While on, no commands execute
anywhere; diagnosis and approval bookkeeping continue.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}

		if err := api().SetKillSwitch(cmd.Context(), enabled); err != nil {
			return err
		}
		if enabled {
			fmt.Println("Kill switch ENABLED: all executions blocked")
		} else {
			fmt.Println("Kill switch disabled")
		}
		return nil
	},
}

func init() {
	alertCmd.Flags().StringVar(&alertSeverity, "severity", "high", "alert severity (low, medium, high, critical)")
	alertCmd.Flags().StringVar(&alertSource, "source", "cli", "alert source")
	alertCmd.Flags().StringVar(&alertHost, "host", "", "affected host")
	alertCmd.Flags().StringArrayVar(&alertLabels, "label", nil, "alert label as key=value (repeatable)")

	approvalsCmd.AddCommand(approvalsListCmd)
	approvalsCmd.AddCommand(approveCmd)
	approvalsCmd.AddCommand(rejectCmd)

	approveCmd.Flags().StringVar(&decisionBy, "by", "", "who is approving (defaults to current user)")
	rejectCmd.Flags().StringVar(&decisionBy, "by", "", "who is rejecting (defaults to current user)")
	rejectCmd.Flags().StringVar(&reason, "reason", "", "why the action was rejected")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries to show")

	for _, cmd := range []*cobra.Command{approvalsListCmd, statsCmd, historyCmd} {
		cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	}
}

// decider resolves who is making an approval decision.
func decider() string {
	if decisionBy != "" {
		return decisionBy
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
