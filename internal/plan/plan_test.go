package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritualhelper/defer-sync/internal/deferlist"
)

type staticState struct {
	candidates []Candidate
	err        error
}

func (s staticState) Candidates(context.Context) ([]Candidate, error) {
	return s.candidates, s.err
}

func entry(name string, prio, minStack int) deferlist.Entry {
	return deferlist.Entry{Name: name, Enabled: true, Priority: prio, MinStackSize: minStack, Origin: deferlist.OriginManual}
}

func ids(clicks []Click) []string {
	out := make([]string, 0, len(clicks))
	for _, c := range clicks {
		out = append(out, c.Candidate.ID)
	}
	return out
}

func TestBuild(t *testing.T) {
	t.Parallel()

	entries := []deferlist.Entry{
		entry("Orb", 3, 1),
		entry("Divine Orb", 10, 1),
		entry("Omen", 6, 2),
		{Name: "Exalted", Enabled: false, Priority: 9, MinStackSize: 1},
	}
	candidates := []Candidate{
		{ID: "c1", BaseName: "Chaos Orb", StackSize: 5},
		{ID: "c2", BaseName: "Divine Orb", StackSize: 1, Deferred: true},
		{ID: "c3", BaseName: "Omen of Light", StackSize: 1},
		{ID: "c4", BaseName: "Omen of Amelioration", StackSize: 2},
		{ID: "c5", BaseName: "Divine Orb", StackSize: 1},
		{ID: "c6", BaseName: "Exalted Orb", StackSize: 1},
		{ID: "c7", BaseName: "Ring", StackSize: 1},
	}

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "new items only",
			want: []string{"c5", "c4", "c1", "c6"},
		},
		{
			name: "existing items after new ones of the same priority",
			opts: Options{DeferExisting: true},
			want: []string{"c5", "c2", "c4", "c1", "c6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clicks, err := Build(context.Background(), entries, candidates, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(clicks))
		})
	}
}

func TestBuild_HighestPriorityEntryWins(t *testing.T) {
	t.Parallel()

	entries := []deferlist.Entry{entry("Orb", 2, 1), entry("Chaos Orb", 7, 1)}
	clicks, err := Build(context.Background(), entries, []Candidate{{ID: "x", BaseName: "Chaos Orb", StackSize: 1}}, Options{})
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, "Chaos Orb", clicks[0].Entry)
	assert.Equal(t, 7, clicks[0].Priority)
}

func TestBuild_NoActiveEntries(t *testing.T) {
	t.Parallel()

	clicks, err := Build(context.Background(), nil, []Candidate{{ID: "x", BaseName: "Orb"}}, Options{})
	require.NoError(t, err)
	assert.Empty(t, clicks)
}

func TestBuild_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, []deferlist.Entry{entry("Orb", 1, 1)}, []Candidate{{ID: "x", BaseName: "Orb"}}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromGameState(t *testing.T) {
	t.Parallel()

	entries := []deferlist.Entry{entry("Omen", 5, 1)}

	clicks, err := FromGameState(context.Background(),
		staticState{candidates: []Candidate{{ID: "a", BaseName: "Omen of Light", StackSize: 1}}},
		entries, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(clicks))

	_, err = FromGameState(context.Background(), staticState{err: errors.New("window closed")}, entries, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window closed")
}
