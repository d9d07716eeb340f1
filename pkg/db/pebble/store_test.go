package pebble

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/pebbledict/pkg/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), Options{})
	require.NoError(t, err)
	return store
}

func TestStore(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.Store)
	}{
		{
			name: "basic_put_get",
			fn:   testBasicPutGet,
		},
		{
			name: "has",
			fn:   testHas,
		},
		{
			name: "delete_operations",
			fn:   testDelete,
		},
		{
			name: "delete_range",
			fn:   testDeleteRange,
		},
		{
			name: "maintenance_operations",
			fn:   testMaintenance,
		},
		{
			name: "store_closure",
			fn:   testStoreClosure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(t)
			defer store.Close()

			tc.fn(t, store)
		})
	}
}

func testBasicPutGet(t *testing.T, store db.Store) {
	key := []byte("test-key")
	value := []byte("test-value")

	err := store.Put(key, value, false)
	require.NoError(t, err)

	retrieved, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, retrieved)

	// Test non-existent key
	_, err = store.Get([]byte("non-existent"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	// Present-but-empty is not a miss
	err = store.Put([]byte("empty"), nil, false)
	require.NoError(t, err)
	retrieved, err = store.Get([]byte("empty"))
	require.NoError(t, err)
	assert.Empty(t, retrieved)
}

func testHas(t *testing.T, store db.Store) {
	require.NoError(t, store.Put([]byte("present"), []byte("v"), false))

	ok, err := store.Has([]byte("present"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Has([]byte("absent"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func testDelete(t *testing.T, store db.Store) {
	key := []byte("delete-test")
	value := []byte("to-be-deleted")

	err := store.Put(key, value, false)
	require.NoError(t, err)

	err = store.Delete(key, false)
	require.NoError(t, err)

	_, err = store.Get(key)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// Delete non-existent key should not error
	err = store.Delete([]byte("non-existent"), false)
	assert.NoError(t, err)
}

func testDeleteRange(t *testing.T, store db.Store) {
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Put([]byte(k), []byte("v"), false))
	}

	// End bound is exclusive
	err := store.DeleteRange([]byte("a"), []byte("c"), false)
	require.NoError(t, err)

	_, err = store.Get([]byte("a"))
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = store.Get([]byte("b"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = store.Get([]byte("c"))
	assert.NoError(t, err)
	_, err = store.Get([]byte("d"))
	assert.NoError(t, err)
}

func testMaintenance(t *testing.T, store db.Store) {
	for _, k := range []string{"k1", "k2", "k3"} {
		require.NoError(t, store.Put([]byte(k), []byte("payload"), false))
	}

	require.NoError(t, store.Flush())
	require.NoError(t, store.Compact([]byte("k1"), []byte("k9")))

	_, err := store.EstimateDiskUsage([]byte("k1"), []byte("k9"))
	assert.NoError(t, err)

	metrics, err := store.Metrics()
	require.NoError(t, err)
	assert.NotEmpty(t, metrics)
}

func testStoreClosure(t *testing.T, store db.Store) {
	err := store.Close()
	require.NoError(t, err)

	// Every operation must refuse a closed store
	_, err = store.Get([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.Has([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.Put([]byte("key"), []byte("value"), false)
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.Delete([]byte("key"), false)
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.DeleteRange([]byte("a"), []byte("b"), false)
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.NewBatch()
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.NewSnapshot()
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.NewIter(nil, nil)
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.Checkpoint(t.TempDir() + "/cp")
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.Flush()
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.Compact([]byte("a"), []byte("b"))
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.EstimateDiskUsage([]byte("a"), []byte("b"))
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.Metrics()
	assert.ErrorIs(t, err, db.ErrClosed)

	// Double close should not error
	err = store.Close()
	assert.NoError(t, err)
}

func TestCheckpoint(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	require.NoError(t, store.Put([]byte("k1"), []byte("v1"), false))
	require.NoError(t, store.Put([]byte("k2"), []byte("v2"), false))

	dest := filepath.Join(t.TempDir(), "checkpoint")
	require.NoError(t, store.Checkpoint(dest))

	// The destination must be refused once it exists
	err := store.Checkpoint(dest)
	assert.Error(t, err)

	// The copy opens as an independent store with the same contents
	copied, err := Open(dest, Options{})
	require.NoError(t, err)
	defer copied.Close()

	v, err := copied.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	v, err = copied.Get([]byte("k2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)
}

func TestInMemoryStore(t *testing.T) {
	store, err := Open("mem", Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte("k"), []byte("v"), false))

	v, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestReadOnlyStore(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte("k"), []byte("v"), false))
	require.NoError(t, store.Close())

	ro, err := Open(dir, Options{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	v, err := ro.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	err = ro.Put([]byte("k2"), []byte("v2"), false)
	assert.Error(t, err, "writes must fail on a read-only store")
}
