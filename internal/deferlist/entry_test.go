package deferlist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Entry
	}{
		{
			name: "full row",
			in:   `{"name":"Chaos Orb","enabled":false,"priority":8,"minStackSize":2,"origin":"api"}`,
			want: Entry{Name: "Chaos Orb", Enabled: false, Priority: 8, MinStackSize: 2, Origin: OriginAPI},
		},
		{
			name: "defaults",
			in:   `{"name":"MyRing"}`,
			want: Entry{Name: "MyRing", Enabled: true, Priority: 1, MinStackSize: 1, Origin: OriginManual},
		},
		{
			name: "unknown origin is manual",
			in:   `{"name":"X","origin":"imported"}`,
			want: Entry{Name: "X", Enabled: true, Priority: 1, MinStackSize: 1, Origin: OriginManual},
		},
		{
			name: "legacy bool flag",
			in:   `{"name":"Divine Orb","priority":10,"IsApiItem":true}`,
			want: Entry{Name: "Divine Orb", Enabled: true, Priority: 10, MinStackSize: 1, Origin: OriginAPI},
		},
		{
			name: "legacy toggle node",
			in:   `{"name":"Divine Orb","IsApiItem":{"Value":false}}`,
			want: Entry{Name: "Divine Orb", Enabled: true, Priority: 1, MinStackSize: 1, Origin: OriginManual},
		},
		{
			name: "origin tag wins over legacy flag",
			in:   `{"name":"Divine Orb","origin":"manual","IsApiItem":true}`,
			want: Entry{Name: "Divine Orb", Enabled: true, Priority: 1, MinStackSize: 1, Origin: OriginManual},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got Entry
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntryJSON_Encode(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal([]Entry{api("Chaos Orb", 8)})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Chaos Orb","enabled":true,"priority":8,"minStackSize":1,"origin":"api"}]`, string(data))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	in := []Entry{
		{Name: "A", Priority: 0, MinStackSize: 0},
		{Name: "B", Priority: 42, MinStackSize: -3, Origin: OriginAPI},
		{Name: "C", Priority: 5, MinStackSize: 7, Origin: Origin("weird")},
	}
	got := Normalize(in)

	assert.Equal(t, Entry{Name: "A", Priority: 1, MinStackSize: 1, Origin: OriginManual}, got[0])
	assert.Equal(t, Entry{Name: "B", Priority: 10, MinStackSize: 1, Origin: OriginAPI}, got[1])
	assert.Equal(t, Entry{Name: "C", Priority: 5, MinStackSize: 7, Origin: OriginManual}, got[2])
	assert.Equal(t, 0, in[0].Priority, "input untouched")
}

func TestMatchesCandidate(t *testing.T) {
	t.Parallel()

	entry := Entry{Name: "Orb", Enabled: true, Priority: 5, MinStackSize: 3}

	tests := []struct {
		name  string
		entry Entry
		item  string
		stack int
		want  bool
	}{
		{name: "substring match", entry: entry, item: "Divine Orb", stack: 3, want: true},
		{name: "case insensitive", entry: entry, item: "CHAOS ORB", stack: 10, want: true},
		{name: "stack too small", entry: entry, item: "Divine Orb", stack: 2, want: false},
		{name: "no match", entry: entry, item: "Omen of Light", stack: 5, want: false},
		{name: "disabled", entry: Entry{Name: "Orb", MinStackSize: 1}, item: "Divine Orb", stack: 1, want: false},
		{name: "empty name", entry: Entry{Name: " ", Enabled: true, MinStackSize: 1}, item: "Divine Orb", stack: 1, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchesCandidate(tt.entry, tt.item, tt.stack))
		})
	}
}

func TestSameName(t *testing.T) {
	t.Parallel()

	assert.True(t, SameName("Chaos Orb", "chaos ORB"))
	assert.False(t, SameName("Chaos Orb", " Chaos Orb"))
	assert.False(t, SameName("Chaos Orb", "Chaos"))
}
