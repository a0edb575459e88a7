package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ritualhelper/defer-sync/internal/plan"
)

// candidateFile is a game-state snapshot saved as a JSON array of candidates
type candidateFile string

func (f candidateFile) Candidates(_ context.Context) ([]plan.Candidate, error) {
	// #nosec G304 -- path is given on the command line
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f, err)
	}
	var candidates []plan.Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f, err)
	}
	return candidates, nil
}

func newPlanCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the clicks the current list would make for a set of on-screen items",
		Long: `Match a snapshot of on-screen items against the active defer list and print
the resulting clicks in the order they would be made. Nothing is clicked.

The candidates file is a JSON array of {"id", "baseName", "stackSize", "deferred"} objects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("candidates")
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

			opts := plan.Options{DeferExisting: comps.cfg.Plan.DeferExisting}
			if stored, ok, err := comps.settings.DeferExisting(ctx); err != nil {
				return err
			} else if ok {
				opts.DeferExisting = stored
			}
			if cmd.Flags().Changed("defer-existing") {
				opts.DeferExisting, _ = cmd.Flags().GetBool("defer-existing")
			}

			entries, err := comps.settings.CuratedList(ctx)
			if err != nil {
				return err
			}
			clicks, err := plan.FromGameState(ctx, candidateFile(path), entries, opts)
			if err != nil {
				return err
			}

			if format == formatJSON {
				if clicks == nil {
					clicks = []plan.Click{}
				}
				return writeJSON(cmd.OutOrStdout(), clicks)
			}
			return renderClicks(cmd.OutOrStdout(), clicks)
		},
	}
	cmd.Flags().String("candidates", "", "JSON file with the on-screen items (required)")
	cmd.Flags().Bool("defer-existing", false, "Also plan items that were already deferred")
	cmd.Flags().String("format", formatTable, "Output format (table or json)")
	_ = cmd.MarkFlagRequired("candidates")
	return cmd
}
