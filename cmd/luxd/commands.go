package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nerrad567/luxd/internal/channels/ddc"
	"github.com/nerrad567/luxd/internal/infrastructure/config"
	"github.com/nerrad567/luxd/internal/infrastructure/logging"
	"github.com/nerrad567/luxd/internal/monitor"
)

// cliLogger returns a logger suitable for one-shot commands: terse text
// on stderr, warnings and errors only, so command output stays parseable.
func cliLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{
		Level:  "warn",
		Format: "text",
		Output: "stderr",
	}, version)
}

// addChannelFlag registers the shared --channel flag on a command.
func addChannelFlag(cmd *cobra.Command) {
	cmd.Flags().String("channel", "", `restrict to one control channel ("wmi" or "ddc")`)
}

// newListCommand lists addressable monitor names, one per line.
func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List addressable monitors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			constraint, err := parseChannelFlag(cmd)
			if err != nil {
				return err
			}

			dispatcher := newCLIDispatcher(cliLogger())
			for _, name := range dispatcher.ListMonitors(cmd.Context(), constraint) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	addChannelFlag(cmd)
	return cmd
}

// newInfoCommand prints full details of every monitor matching the query.
func newInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [query]",
		Short: "Show monitor details",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			constraint, err := parseChannelFlag(cmd)
			if err != nil {
				return err
			}

			dispatcher := newCLIDispatcher(cliLogger())
			records, err := monitor.Filter(queryFromArgs(args), dispatcher.ListMonitorsInfo(cmd.Context(), constraint), constraint)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, rec := range records {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s\n", rec.Name)
				fmt.Fprintf(out, "  serial:       %s\n", rec.Serial)
				fmt.Fprintf(out, "  model:        %s\n", rec.Model)
				if rec.Manufacturer != "" {
					fmt.Fprintf(out, "  manufacturer: %s (%s)\n", rec.Manufacturer, rec.ManufacturerID)
				}
				fmt.Fprintf(out, "  channel:      %s (index %d)\n", rec.Channel, rec.ChannelIndex)
				if len(rec.EDID) > 0 {
					fmt.Fprintf(out, "  edid:         %d bytes\n", len(rec.EDID))
				}
			}
			return nil
		},
	}
	addChannelFlag(cmd)
	return cmd
}

// newGetCommand reads brightness for every monitor matching the query.
func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [query]",
		Short: "Read monitor brightness",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			constraint, err := parseChannelFlag(cmd)
			if err != nil {
				return err
			}

			dispatcher := newCLIDispatcher(cliLogger())
			readings, err := dispatcher.GetBrightness(cmd.Context(), queryFromArgs(args), constraint)
			if err != nil {
				return err
			}

			printReadings(cmd, readings)
			return nil
		},
	}
	addChannelFlag(cmd)
	return cmd
}

// newSetCommand writes a brightness value to every monitor matching the query.
func newSetCommand() *cobra.Command {
	var readback bool

	cmd := &cobra.Command{
		Use:   "set <value> [query]",
		Short: "Set monitor brightness (0-100)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("brightness value must be an integer, got %q", args[0])
			}

			constraint, err := parseChannelFlag(cmd)
			if err != nil {
				return err
			}

			dispatcher := newCLIDispatcher(cliLogger())
			readings, err := dispatcher.SetBrightness(cmd.Context(), value, queryFromArgs(args[1:]), constraint, readback)
			if err != nil {
				return err
			}

			if readback {
				printReadings(cmd, readings)
			}
			return nil
		},
	}
	addChannelFlag(cmd)
	cmd.Flags().BoolVar(&readback, "readback", false, "read brightness back after setting")
	return cmd
}

// newCapsCommand queries the DDC/CI capabilities string of external monitors.
func newCapsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caps [query]",
		Short: "Show DDC/CI capabilities of external monitors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliLogger()
			provider := ddc.New()
			provider.SetLogger(log)

			dispatcher := monitor.NewDispatcher(provider)
			dispatcher.SetLogger(log)

			records, err := monitor.Filter(queryFromArgs(args), dispatcher.ListMonitorsInfo(cmd.Context(), monitor.ChannelDDC), monitor.ChannelDDC)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rec := range records {
				caps, err := provider.Capabilities(cmd.Context(), rec.ChannelIndex)
				if err != nil {
					return fmt.Errorf("reading capabilities of %s: %w", rec.Name, err)
				}
				if caps == "" {
					fmt.Fprintf(out, "%s: no capabilities reported\n", rec.Name)
					continue
				}
				fmt.Fprintf(out, "%s: %s\n", rec.Name, caps)
			}
			return nil
		},
	}
	return cmd
}

// printReadings renders readings one monitor per line. Monitors that
// answered without a usable value are shown as "n/a".
func printReadings(cmd *cobra.Command, readings []monitor.Reading) {
	out := cmd.OutOrStdout()
	for _, reading := range readings {
		if !reading.Valid {
			fmt.Fprintf(out, "%s (%s): n/a\n", reading.Monitor.Name, reading.Monitor.Serial)
			continue
		}
		fmt.Fprintf(out, "%s (%s): %d\n", reading.Monitor.Name, reading.Monitor.Serial, reading.Value)
	}
}
