package deferlist

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Mode selects how fresh api rows are combined with the current list
type Mode int

const (
	// ModeMerge keeps manual rows and replaces api rows (default)
	ModeMerge Mode = iota
	// ModeReplace discards the current list
	ModeReplace
)

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "merge"
}

// ParseMode accepts "merge" or "replace", case-insensitively
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "merge":
		return ModeMerge, nil
	case "replace":
		return ModeReplace, nil
	default:
		return ModeMerge, fmt.Errorf("unknown merge mode %q", s)
	}
}

// Merge combines the current list with freshly derived api rows and returns a
// new sorted list. Neither input is modified.
//
// In ModeMerge a current row is dropped when it is tagged api or when its name
// is also in apiDerived; every other row is kept. The enabled flag of any
// output row whose name was in current is carried over from current.
func Merge(current, apiDerived []Entry, mode Mode) []Entry {
	fresh := uniqueAPI(apiDerived)
	if mode == ModeReplace {
		Sort(fresh)
		return fresh
	}

	apiNames := make(map[string]struct{}, len(fresh))
	for _, e := range fresh {
		apiNames[nameKey(e.Name)] = struct{}{}
	}

	enabled := make(map[string]bool, len(current))
	out := make([]Entry, 0, len(current)+len(fresh))
	kept := make(map[string]struct{}, len(current))
	for _, e := range current {
		if blank(e.Name) {
			continue
		}
		key := nameKey(e.Name)
		if _, ok := enabled[key]; !ok {
			enabled[key] = e.Enabled
		}
		if e.Origin == OriginAPI {
			continue
		}
		if _, ok := apiNames[key]; ok {
			continue
		}
		if _, ok := kept[key]; ok {
			continue
		}
		kept[key] = struct{}{}
		out = append(out, e)
	}

	for _, e := range fresh {
		if en, ok := enabled[nameKey(e.Name)]; ok {
			e.Enabled = en
		}
		out = append(out, e)
	}

	Sort(out)
	return out
}

// uniqueAPI drops unnamed rows and collapses rows sharing a name, keeping the
// highest priority (the first one on a tie)
func uniqueAPI(entries []Entry) []Entry {
	index := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if blank(e.Name) {
			continue
		}
		key := nameKey(e.Name)
		if i, ok := index[key]; ok {
			if e.Priority > out[i].Priority {
				out[i] = e
			}
			continue
		}
		index[key] = len(out)
		out = append(out, e)
	}
	return out
}

// Sort orders entries by priority, highest first, then by name
// case-insensitively, then by exact name
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, compare)
}

func compare(a, b Entry) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// Active returns the enabled rows in click order
func Active(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Enabled && !blank(e.Name) {
			out = append(out, e)
		}
	}
	Sort(out)
	return out
}

// Split counts manual and api rows
func Split(entries []Entry) (manual, api int) {
	for _, e := range entries {
		if e.Origin == OriginAPI {
			api++
		} else {
			manual++
		}
	}
	return manual, api
}
