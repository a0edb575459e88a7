package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ritualhelper/defer-sync/internal/sync/coordinator"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the defer list whenever the sync interval elapses",
		Long: `Run until interrupted, refreshing the defer list each time the configured
sync interval has elapsed since the last successful sync. Without a previous
sync the first refresh happens after the first-sync grace period.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			poll, _ := cmd.Flags().GetDuration("poll")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			comps, err := newComponents(ctx, v)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close(context.WithoutCancel(ctx)) }()

			orch, err := comps.newOrchestrator()
			if err != nil {
				return err
			}

			var opts []coordinator.Option
			if poll > 0 {
				opts = append(opts, coordinator.WithPollingInterval(poll, poll/6))
			}
			slog.Info("Watching for due refreshes", "sync_interval", comps.cfg.GetSyncInterval().String())
			return coordinator.New(orch, opts...).Start(ctx)
		},
	}
	cmd.Flags().Duration("poll", time.Duration(0), "How often to check whether a refresh is due (default 1m)")
	return cmd
}
