// Xcbridge is a command-line client for the Eaton xComfort Bridge.
//
// It speaks the bridge's encrypted websocket protocol directly: discovery of
// bridges on the local network, pairing against an authentication key, a
// live terminal console showing every device and heating room, and direct
// switching and dimming commands for scripting.
//
// Usage:
//
//	xcbridge [command] [flags]
//
// Running without arguments launches the live console.
// See 'xcbridge --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "xcbridge",
	Short: "xComfort Bridge Client",
	Long: `A standalone client for the Eaton xComfort Bridge.

Connects to the bridge over its encrypted websocket protocol and provides
network discovery, a live device console, and direct device commands.

If no command is specified, the live console will launch automatically.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the live console when no subcommand provided
		return runWatch(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xcbridge %s (commit: %s)\n", version.Version, version.Commit)
	},
}
