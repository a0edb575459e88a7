// Package plan turns the curated list and the items currently on screen into
// an ordered list of clicks. It never clicks anything itself.
package plan

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/ritualhelper/defer-sync/internal/deferlist"
)

// Candidate is one item offered on screen
type Candidate struct {
	// ID identifies the element to the input automation layer
	ID        string `json:"id"`
	BaseName  string `json:"baseName"`
	StackSize int    `json:"stackSize"`
	// Deferred is set when the item has already been deferred once
	Deferred bool `json:"deferred"`
}

// Click is one planned defer action
type Click struct {
	Candidate Candidate `json:"candidate"`
	// Entry is the name of the list entry that matched
	Entry    string `json:"entry"`
	Priority int    `json:"priority"`
}

// Options tune which candidates are planned
type Options struct {
	// DeferExisting also plans candidates that are already deferred
	DeferExisting bool
}

// GameState supplies the candidates currently on screen
type GameState interface {
	Candidates(ctx context.Context) ([]Candidate, error)
}

// Build matches every candidate against the active entries and returns the
// clicks ordered by priority, new items before already deferred ones, then in
// the order the candidates were given.
func Build(ctx context.Context, entries []deferlist.Entry, candidates []Candidate, opts Options) ([]Click, error) {
	active := deferlist.Active(entries)
	if len(active) == 0 {
		return nil, nil
	}

	clicks := make([]Click, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.Deferred && !opts.DeferExisting {
			continue
		}
		stack := c.StackSize
		if stack < 1 {
			stack = 1
		}
		for _, e := range active {
			if deferlist.MatchesCandidate(e, c.BaseName, stack) {
				clicks = append(clicks, Click{Candidate: c, Entry: e.Name, Priority: e.Priority})
				break
			}
		}
	}

	slices.SortStableFunc(clicks, func(a, b Click) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return boolRank(a.Candidate.Deferred) - boolRank(b.Candidate.Deferred)
	})
	return clicks, nil
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FromGameState reads the candidates from gs and plans them
func FromGameState(ctx context.Context, gs GameState, entries []deferlist.Entry, opts Options) ([]Click, error) {
	candidates, err := gs.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	return Build(ctx, entries, candidates, opts)
}
