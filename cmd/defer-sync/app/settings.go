package app

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ritualhelper/defer-sync/internal/store"
)

// editableKeys are the settings a user may change; the list and sync time are owned by sync
var editableKeys = []string{
	store.KeyLeagueName,
	store.KeyMinValueFloor,
	store.KeySyncIntervalMinutes,
	store.KeyReplaceMode,
	store.KeyDeferExisting,
}

func newSettingsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or change stored settings",
		Long: fmt.Sprintf(`Read or change the settings kept in the settings store.
Stored settings take precedence over the configuration file.

Keys: %s`, strings.Join(editableKeys, ", ")),
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "get [key]",
		Short:     "Print stored settings",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: editableKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			comps, err := newComponents(ctx, v)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close(ctx) }()

			keys := editableKeys
			if len(args) == 1 {
				if !slices.Contains(editableKeys, args[0]) {
					return fmt.Errorf("unknown setting %q", args[0])
				}
				keys = args
			}

			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				value, ok, err := comps.store.Get(ctx, key)
				if err != nil {
					return err
				}
				if !ok {
					value = "(unset)"
				}
				rows = append(rows, []string{key, value})
			}
			return renderRows(cmd.OutOrStdout(), []string{"Key", "Value"}, rows)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set key value",
		Short:     "Store a setting",
		Args:      cobra.ExactArgs(2),
		ValidArgs: editableKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := normalizeSetting(args[0], args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			comps, err := newComponents(ctx, v)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close(ctx) }()

			return comps.store.PutAll(ctx, map[string]string{args[0]: value})
		},
	})

	return cmd
}

// normalizeSetting checks value against the key's type
func normalizeSetting(key, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch key {
	case store.KeyLeagueName:
		if value == "" {
			return "", fmt.Errorf("%s must not be empty", key)
		}
		return value, nil
	case store.KeyMinValueFloor:
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() {
			return "", fmt.Errorf("%s must be a non-negative number", key)
		}
		return d.String(), nil
	case store.KeySyncIntervalMinutes:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("%s must be a positive whole number of minutes", key)
		}
		return strconv.Itoa(n), nil
	case store.KeyReplaceMode, store.KeyDeferExisting:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("%s must be true or false", key)
		}
		return strconv.FormatBool(b), nil
	default:
		return "", fmt.Errorf("unknown setting %q", key)
	}
}
