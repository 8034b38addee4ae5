// luxd - Windows monitor brightness control.
//
// luxd drives monitor brightness through two hardware channels: the WMI
// brightness classes for laptop-style panels and DDC/CI for external
// monitors. It runs either as a one-shot CLI (list, get, set) or as a
// daemon exposing an HTTP API, brightness history, and optional MQTT
// state publishing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/luxd/internal/channels/ddc"
	"github.com/nerrad567/luxd/internal/channels/wmi"
	"github.com/nerrad567/luxd/internal/infrastructure/logging"
	"github.com/nerrad567/luxd/internal/monitor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand assembles the CLI command tree.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "luxd",
		Short:         "Monitor brightness control over WMI and DDC/CI",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newListCommand(),
		newInfoCommand(),
		newGetCommand(),
		newSetCommand(),
		newCapsCommand(),
	)

	return root
}

// getConfigPath returns the configuration file path.
// Uses LUXD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUXD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// newCLIDispatcher builds a dispatcher over both hardware channels for
// the one-shot commands. Unlike serve, the CLI does not consult the
// config file: a channel that is genuinely absent simply contributes
// zero monitors.
func newCLIDispatcher(log *logging.Logger) *monitor.Dispatcher {
	wmiProvider := wmi.New()
	wmiProvider.SetLogger(log)

	ddcProvider := ddc.New()
	ddcProvider.SetLogger(log)

	dispatcher := monitor.NewDispatcher(wmiProvider, ddcProvider)
	dispatcher.SetLogger(log)
	return dispatcher
}

// parseChannelFlag converts the --channel flag into a Channel constraint.
func parseChannelFlag(cmd *cobra.Command) (monitor.Channel, error) {
	raw, err := cmd.Flags().GetString("channel")
	if err != nil {
		return monitor.ChannelAny, err
	}
	return monitor.ParseChannel(raw)
}

// queryFromArgs interprets an optional positional argument as a monitor query.
func queryFromArgs(args []string) monitor.Query {
	if len(args) == 0 {
		return monitor.All()
	}
	return monitor.ParseQuery(args[0])
}
