package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ritualhelper/defer-sync/internal/deferlist"
	"github.com/ritualhelper/defer-sync/internal/store"
)

func newSyncCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download prices and rebuild the defer list once",
		Long: `Download current prices for every tracked category and rebuild the defer list.

--league, --min-value and --mode are saved to the settings store before the
sync starts, the same way changing them in the plugin settings would. Press
Ctrl+C to cancel; a cancelled sync leaves the list untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, v)
		},
	}
	cmd.Flags().String("league", "", "League to price items in")
	cmd.Flags().String("min-value", "", "Minimum item value that produces an entry")
	cmd.Flags().String("mode", "", "How api entries combine with the current list (merge or replace)")
	cmd.Flags().String("format", formatTable, "Output format (table or json)")
	return cmd
}

func runSync(cmd *cobra.Command, v *viper.Viper) error {
	format, _ := cmd.Flags().GetString("format")
	if err := validateFormat(format); err != nil {
		return err
	}
	overrides, err := syncOverrides(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := newComponents(ctx, v)
	if err != nil {
		return err
	}
	defer func() { _ = comps.Close(context.WithoutCancel(ctx)) }()

	if len(overrides) > 0 {
		if err := comps.store.PutAll(ctx, overrides); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}

	orch, err := comps.newOrchestrator()
	if err != nil {
		return err
	}
	if err := orch.Refresh(ctx); err != nil {
		return err
	}

	st := orch.Status()
	if format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), st)
	}
	return renderStatus(cmd.OutOrStdout(), &st)
}

// syncOverrides validates the sync flags and returns them as store values
func syncOverrides(cmd *cobra.Command) (map[string]string, error) {
	values := map[string]string{}
	flags := cmd.Flags()

	if flags.Changed("league") {
		league, _ := flags.GetString("league")
		values[store.KeyLeagueName] = league
	}
	if flags.Changed("min-value") {
		raw, _ := flags.GetString("min-value")
		floor, err := decimal.NewFromString(raw)
		if err != nil || floor.IsNegative() {
			return nil, fmt.Errorf("invalid --min-value %q: must be a non-negative number", raw)
		}
		values[store.KeyMinValueFloor] = floor.String()
	}
	if flags.Changed("mode") {
		raw, _ := flags.GetString("mode")
		mode, err := deferlist.ParseMode(raw)
		if err != nil {
			return nil, err
		}
		values[store.KeyReplaceMode] = strconv.FormatBool(mode == deferlist.ModeReplace)
	}
	return values, nil
}
