// Nameloc is a terminal form for registering names at locations.
//
// Names are checked against a directory service as you type; a location is
// picked from the list the directory serves; each added pair lands in a
// striped table. The directory can be the built-in mock, a remote server
// reached over HTTP or WebSocket, or one found on the LAN via mDNS.
//
// Usage:
//
//	nameloc [command] [flags]
//
// Running without arguments launches the form.
// See 'nameloc --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/nameloc/internal/version"
)

// errReported marks failures that were already printed in a result box
var errReported = errors.New("failure already reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nameloc",
	Short: "Name and location entry form",
	Long: `An interactive form for pairing names with locations.

Names are validated against a directory service while you type. Valid
names can be added at the selected location, and every added pair is
shown in a table below the form.

Without --api the form runs against a built-in mock directory. Use
'nameloc serve' to run that mock as a network service.

If no command is specified, the form launches automatically.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runForm,
}

// Global flags
var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the platform config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; empty = silent)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nameloc %s\n", version.Full())
	},
}
