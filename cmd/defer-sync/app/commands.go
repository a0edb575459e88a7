// Package app provides the cobra commands of the defer-sync tool.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ritualhelper/defer-sync/internal/config"
	"github.com/ritualhelper/defer-sync/internal/versions"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// NewRootCmd creates the root command with every subcommand attached.
// Global flags are bound to a viper instance so they can also be set as
// DEFER_SYNC_CONFIG, DEFER_SYNC_STORE_TYPE, ... environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "defer-sync",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Keep the ritual defer list in sync with market prices",
		Long: `defer-sync maintains the prioritized list of items to defer during a ritual.

It downloads item prices from the pricing API, turns every item worth at least
the configured minimum into a list entry and merges those entries with the ones
you curated by hand.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to the YAML configuration file")
	flags.String("store-type", "", "Settings store backend (file, sqlite, memory)")
	flags.String("store-path", "", "Settings store location")
	flags.String("state-dir", "", "Directory holding status.json")
	for _, name := range []string{"config", "store-type", "store-path", "state-dir"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}

	rootCmd.AddCommand(
		newSyncCmd(v),
		newWatchCmd(v),
		newListCmd(v),
		newPlanCmd(v),
		newStatusCmd(v),
		newSettingsCmd(v),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			if format == formatJSON {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want %s or %s)", format, formatTable, formatJSON)
	}
}
