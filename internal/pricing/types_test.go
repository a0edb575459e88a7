package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &FetchError{Category: CategoryRitual, Page: 1, Err: cause}

	assert.Equal(t, "fetch ritual page 1: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestDecodePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantPages int
		wantItems int
	}{
		{name: "empty", body: "   ", wantErr: true},
		{name: "truncated", body: `{"items":[`, wantErr: true},
		{name: "wrong type", body: `{"pages":"many"}`, wantErr: true},
		{name: "numeric price", body: `{"currentPage":1,"pages":2,"items":[{"text":"A","currentPrice":1.25}]}`, wantPages: 2, wantItems: 1},
		{name: "string price", body: `{"currentPage":1,"pages":1,"items":[{"text":"A","currentPrice":"7"}]}`, wantPages: 1, wantItems: 1},
		{name: "mixed case keys", body: `{"CURRENTPAGE":1,"Pages":3,"Items":[]}`, wantPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, err := decodePage([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrDecode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPages, env.Pages)
			assert.Len(t, env.Items, tt.wantItems)
		})
	}
}

func TestAPIItemToPricedItem(t *testing.T) {
	t.Parallel()

	item := apiItem{Text: "  Exalted Orb ", CategoryAPIID: ""}
	got := item.toPricedItem(CategoryCurrency)
	assert.Equal(t, "Exalted Orb", got.Name)
	assert.Equal(t, CategoryCurrency, got.CategoryID)

	item.CategoryAPIID = "omens"
	assert.Equal(t, "omens", item.toPricedItem(CategoryRitual).CategoryID)
}
