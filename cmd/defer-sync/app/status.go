package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the outcome of the last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			if err := validateFormat(format); err != nil {
				return err
			}

			ctx := cmd.Context()
			comps, err := newComponents(ctx, v)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close(ctx) }()

			st, err := comps.statusStore.LoadStatus(ctx)
			if err != nil {
				return err
			}
			if st.LastSyncTime == nil {
				// a list written by another tool still counts
				if last, err := comps.settings.LastSyncTime(ctx); err == nil {
					st.LastSyncTime = last
				}
			}

			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			return renderStatus(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().String("format", formatTable, "Output format (table or json)")
	return cmd
}
