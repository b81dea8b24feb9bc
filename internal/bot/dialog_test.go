package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialogStore(t *testing.T) {
	store := NewDialogStore()

	_, ok := store.Get(1)
	assert.False(t, ok)

	store.Set(1, DialogEntry{Stage: StagePrice, Draft: Draft{Name: "Велосипед"}})
	store.Set(2, DialogEntry{Stage: StageModEdit, ListingID: 7, Field: EditPrice})

	entry, ok := store.Get(1)
	assert.True(t, ok)
	assert.Equal(t, StagePrice, entry.Stage)
	assert.Equal(t, "Велосипед", entry.Draft.Name)

	entry, ok = store.Get(2)
	assert.True(t, ok)
	assert.Equal(t, int64(7), entry.ListingID)
	assert.Equal(t, EditPrice, entry.Field)

	store.Clear(1)
	_, ok = store.Get(1)
	assert.False(t, ok)

	// Clearing one user leaves the other untouched
	_, ok = store.Get(2)
	assert.True(t, ok)

	// Clear is idempotent
	store.Clear(1)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "awaiting_price", StagePrice.String())
	assert.Equal(t, "none", StageNone.String())
	assert.Equal(t, "unknown", Stage(99).String())
}
