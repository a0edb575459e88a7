package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ritualhelper/defer-sync/internal/deferlist"
)

func newListCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the curated defer list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			if err := validateFormat(format); err != nil {
				return err
			}
			active, _ := cmd.Flags().GetBool("active")

			ctx := cmd.Context()
			comps, err := newComponents(ctx, v)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close(ctx) }()

			entries, err := comps.settings.CuratedList(ctx)
			if err != nil {
				return err
			}
			if active {
				entries = deferlist.Active(entries)
			}

			if format == formatJSON {
				if entries == nil {
					entries = []deferlist.Entry{}
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return renderEntries(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().Bool("active", false, "Only show enabled entries, in the order they are applied")
	cmd.Flags().String("format", formatTable, "Output format (table or json)")
	return cmd
}
