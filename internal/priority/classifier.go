// Package priority maps an item's price to a defer priority tier.
package priority

import "github.com/shopspring/decimal"

const (
	// Min is the lowest priority tier
	Min = 1
	// Max is the highest priority tier
	Max = 10
)

type tier struct {
	floor    decimal.Decimal
	priority int
}

// tiers are ordered from the highest floor down; floors are inclusive
var tiers = []tier{
	{decimal.NewFromInt(500), 10},
	{decimal.NewFromInt(400), 9},
	{decimal.NewFromInt(300), 8},
	{decimal.NewFromInt(200), 7},
	{decimal.NewFromInt(100), 6},
	{decimal.NewFromInt(50), 5},
	{decimal.NewFromInt(25), 4},
	{decimal.NewFromInt(10), 3},
	{decimal.NewFromInt(5), 2},
}

// Classify returns the priority for value, between Min and Max
func Classify(value decimal.Decimal) int {
	for _, t := range tiers {
		if value.GreaterThanOrEqual(t.floor) {
			return t.priority
		}
	}
	return Min
}

// Clamp forces p into [Min, Max]
func Clamp(p int) int {
	switch {
	case p < Min:
		return Min
	case p > Max:
		return Max
	default:
		return p
	}
}
