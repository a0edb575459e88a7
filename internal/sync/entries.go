package sync

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ritualhelper/defer-sync/internal/deferlist"
	"github.com/ritualhelper/defer-sync/internal/pricing"
	"github.com/ritualhelper/defer-sync/internal/priority"
)

// buildAPIEntries turns every named item worth at least floor into an api entry
func buildAPIEntries(listings [][]pricing.PricedItem, floor decimal.Decimal) []deferlist.Entry {
	var entries []deferlist.Entry
	for _, items := range listings {
		for _, item := range items {
			name := strings.TrimSpace(item.Name)
			if name == "" || item.CurrentValue.LessThan(floor) {
				continue
			}
			entries = append(entries, deferlist.NewAPIEntry(name, priority.Classify(item.CurrentValue)))
		}
	}
	return entries
}
