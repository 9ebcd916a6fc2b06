package catalog

import (
	"testing"

	"ayat-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	events, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	return NewStore(events, nil)
}

func TestStoreAddBookedRawCounts(t *testing.T) {
	store := newTestStore(t)

	store.AddBooked("evt-1", 3)
	e, ok := store.Event("evt-1")
	require.True(t, ok)
	assert.Equal(t, models.RawCounts{Total: 50, Booked: 13}, e.Availability)

	store.AddBooked("evt-1", 2)
	e, _ = store.Event("evt-1")
	assert.Equal(t, 15, e.Availability.(models.RawCounts).Booked)
}

func TestStoreAddBookedIgnoresStatusDriven(t *testing.T) {
	store := newTestStore(t)

	store.AddBooked("evt-3", 4)
	e, _ := store.Event("evt-3")
	assert.IsType(t, models.StatusDriven{}, e.Availability)
}

func TestStoreApplyBookedOverrides(t *testing.T) {
	store := newTestStore(t)

	store.ApplyBooked(map[string]int{"evt-1": 42})
	e, _ := store.Event("evt-1")
	assert.Equal(t, 42, e.Availability.(models.RawCounts).Booked)

	store.ApplyBooked(map[string]int{})
	e, _ = store.Event("evt-1")
	assert.Equal(t, 10, e.Availability.(models.RawCounts).Booked, "falls back to catalog count")
}

func TestStoreSnapshotsAreCopies(t *testing.T) {
	store := newTestStore(t)

	events := store.Events()
	events[0].Title = "changed"

	e, _ := store.Event("evt-1")
	assert.Equal(t, "Sufi Evening", e.Title)
}

func TestStoreUnknownEvent(t *testing.T) {
	store := NewStore(nil, &LoadError{Source: "x"})
	_, ok := store.Event("nope")
	assert.False(t, ok)
	assert.Error(t, store.Err())
	assert.Empty(t, store.Events())
}
