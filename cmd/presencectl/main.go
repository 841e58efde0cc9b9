// Command presencectl publishes Rich Presence activities to the local
// companion application and inspects protocol captures.
//
// Usage:
//
//	presencectl <command> [flags]
//
// Commands:
//
//	run        Connect and drive presence from an interactive console
//	log view   View a protocol capture in human-readable format
//	log stats  Show statistics about a protocol capture
//	version    Print the client version
//
// Examples:
//
//	# Connect with settings from a file and capture the protocol
//	presencectl run --config presence.yaml --protocol-log session.plog
//
//	# Hide the activity after five idle minutes, serve metrics
//	presencectl run --hide-after 5 --metrics-addr 127.0.0.1:9464
//
//	# View only wire-layer events of a capture
//	presencectl log view --layer wire session.plog
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/railroadide/richpresence/pkg/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "presencectl",
		Short: "Rich Presence IPC client",
		Long: `presencectl talks to the locally running companion application over its
IPC socket (or named pipe on Windows), publishes activities and hides them
after a period without interaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		logCmd(),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
