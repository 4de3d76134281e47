// Package main implements the remedyctl CLI for operating a remedyd
// daemon: submitting alerts, resolving approvals, and watching the
// live dashboard.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/remedyd/internal/client"
)

var (
	// serverURL is the base URL for the remedyd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "remedyctl",
	Short: "CLI for remedyd daemon operations",
	Long: `remedyctl is a command-line interface for operating a remedyd daemon.
It submits alerts, manages the approval queue, inspects statistics and
audit history, and controls the oversight mode and kill switch.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9482", "remedyd server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(alertCmd)
	rootCmd.AddCommand(approvalsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(killSwitchCmd)
	rootCmd.AddCommand(watchCmd)
}

// api returns a client for the configured server.
func api() *client.Client {
	return client.New(serverURL)
}
