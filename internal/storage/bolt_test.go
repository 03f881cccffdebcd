package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

func TestBoltStore_SaveAndLatest(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)

	_, err = store.Latest()
	assert.ErrorIs(t, err, event.ErrStorageUnavailable)

	first := sampleEvents()[:1]
	second := sampleEvents()

	_, err = store.Save(second, time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = store.Save(first, time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	got, err := store.Latest()
	require.NoError(t, err)
	require.Len(t, got, 2, "latest should follow the timestamp, not the insertion order")
	assert.Equal(t, second[1].Key(), got[1].Key())

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBoltStore_SaveEmpty(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)

	ref, err := store.Save([]event.Event{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, ref)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBoltStore_ImplementsStore(t *testing.T) {
	var _ Store = (*BoltStore)(nil)
	var _ Store = (*FileStore)(nil)
}
