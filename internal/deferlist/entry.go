// Package deferlist holds the curated defer list and reconciles it with
// entries derived from pricing data.
package deferlist

import (
	"encoding/json"
	"strings"

	"github.com/ritualhelper/defer-sync/internal/priority"
)

// Origin records who created a row
type Origin string

const (
	// OriginManual rows were added by the user and survive syncs
	OriginManual Origin = "manual"
	// OriginAPI rows were produced by the last sync and are replaced by the next one
	OriginAPI Origin = "api"
)

// UnmarshalText decodes an origin tag. Anything other than "api" is manual.
func (o *Origin) UnmarshalText(text []byte) error {
	if strings.EqualFold(strings.TrimSpace(string(text)), string(OriginAPI)) {
		*o = OriginAPI
	} else {
		*o = OriginManual
	}
	return nil
}

// Entry is one row of the curated list
type Entry struct {
	Name         string `json:"name"`
	Enabled      bool   `json:"enabled"`
	Priority     int    `json:"priority"`
	MinStackSize int    `json:"minStackSize"`
	Origin       Origin `json:"origin"`
}

// NewAPIEntry builds an enabled api row matching any stack size
func NewAPIEntry(name string, prio int) Entry {
	return Entry{
		Name:         name,
		Enabled:      true,
		Priority:     priority.Clamp(prio),
		MinStackSize: 1,
		Origin:       OriginAPI,
	}
}

// legacyFlag is the older "IsApiItem" marker, stored either as a bare bool
// or as {"Value": bool}
type legacyFlag struct {
	set   bool
	value bool
}

func (f *legacyFlag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.set, f.value = true, b
		return nil
	}
	var node struct {
		Value bool `json:"Value"`
	}
	if err := json.Unmarshal(data, &node); err != nil {
		return err
	}
	f.set, f.value = true, node.Value
	return nil
}

// UnmarshalJSON applies row defaults (enabled, priority 1, minStackSize 1)
// and understands lists written before the origin tag existed.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	aux := struct {
		plain
		Origin    *Origin    `json:"origin"`
		IsAPIItem legacyFlag `json:"IsApiItem"`
	}{
		plain: plain{Enabled: true, Priority: priority.Min, MinStackSize: 1},
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*e = Entry(aux.plain)
	switch {
	case aux.Origin != nil:
		e.Origin = *aux.Origin
	case aux.IsAPIItem.set && aux.IsAPIItem.value:
		e.Origin = OriginAPI
	default:
		e.Origin = OriginManual
	}
	return nil
}

// nameKey is the case-insensitive matching key. Whitespace is significant.
func nameKey(name string) string {
	return strings.ToLower(name)
}

// blank rows have no usable name
func blank(name string) bool {
	return strings.TrimSpace(name) == ""
}

// SameName compares two names the way the list does
func SameName(a, b string) bool {
	return nameKey(a) == nameKey(b)
}

// Normalize returns a copy with priority clamped to [1,10], minStackSize of
// at least 1 and a known origin
func Normalize(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.Priority = priority.Clamp(e.Priority)
		if e.MinStackSize < 1 {
			e.MinStackSize = 1
		}
		if e.Origin != OriginAPI {
			e.Origin = OriginManual
		}
		out = append(out, e)
	}
	return out
}

// MatchesCandidate reports whether an on-screen item should be deferred by e.
// Matching here is a case-insensitive substring test against the item's base name.
func MatchesCandidate(e Entry, itemName string, stackSize int) bool {
	if !e.Enabled || stackSize < e.MinStackSize {
		return false
	}
	needle := strings.TrimSpace(e.Name)
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(itemName), strings.ToLower(needle))
}
