package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/pebbledict/pkg/db"
)

func TestBatch(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.Store)
	}{
		{
			name: "basic_batch_operations",
			fn:   testBasicBatchOperations,
		},
		{
			name: "batch_delete_range",
			fn:   testBatchDeleteRange,
		},
		{
			name: "batch_commit_closure",
			fn:   testBatchCommitAndClose,
		},
		{
			name: "multiple_batches",
			fn:   testMultipleBatches,
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

func testBasicBatchOperations(t *testing.T, store db.Store) {
	batch, err := store.NewBatch()
	require.NoError(t, err)
	defer batch.Close()

	keys := [][]byte{[]byte("key1"), []byte("key2"), []byte("key3")}
	values := [][]byte{[]byte("value1"), []byte("value2"), []byte("value3")}

	for i := range keys {
		err := batch.Put(keys[i], values[i])
		require.NoError(t, err)
	}

	// Delete one key in the same batch
	err = batch.Delete(keys[1])
	require.NoError(t, err)
	assert.Equal(t, uint32(4), batch.Count())

	// Nothing is visible until commit
	_, err = store.Get(keys[0])
	assert.ErrorIs(t, err, db.ErrNotFound)

	err = batch.Commit(false)
	require.NoError(t, err)

	val1, err := store.Get(keys[0])
	require.NoError(t, err)
	assert.Equal(t, values[0], val1)

	// Verify deleted key
	_, err = store.Get(keys[1])
	assert.ErrorIs(t, err, db.ErrNotFound)

	val3, err := store.Get(keys[2])
	require.NoError(t, err)
	assert.Equal(t, values[2], val3)
}

func testBatchDeleteRange(t *testing.T, store db.Store) {
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Put([]byte(k), []byte("v"), false))
	}

	batch, err := store.NewBatch()
	require.NoError(t, err)
	defer batch.Close()

	require.NoError(t, batch.DeleteRange([]byte("a"), []byte("c")))
	require.NoError(t, batch.Commit(false))

	_, err = store.Get([]byte("a"))
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = store.Get([]byte("b"))
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = store.Get([]byte("c"))
	assert.NoError(t, err)
}

func testBatchCommitAndClose(t *testing.T, store db.Store) {
	batch, err := store.NewBatch()
	require.NoError(t, err)

	err = batch.Put([]byte("key"), []byte("value"))
	require.NoError(t, err)

	err = batch.Commit(false)
	require.NoError(t, err)

	// Operations after commit should fail
	err = batch.Put([]byte("key2"), []byte("value2"))
	assert.ErrorIs(t, err, db.ErrBatchDone)

	err = batch.Delete([]byte("key2"))
	assert.ErrorIs(t, err, db.ErrBatchDone)

	err = batch.DeleteRange([]byte("a"), []byte("b"))
	assert.ErrorIs(t, err, db.ErrBatchDone)

	// Second commit should fail
	err = batch.Commit(false)
	assert.ErrorIs(t, err, db.ErrBatchDone)

	// Close should not error
	err = batch.Close()
	assert.NoError(t, err)

	// Double close should not error
	err = batch.Close()
	assert.NoError(t, err)
}

func testMultipleBatches(t *testing.T, store db.Store) {
	batch1, err := store.NewBatch()
	require.NoError(t, err)
	batch2, err := store.NewBatch()
	require.NoError(t, err)
	defer batch1.Close()
	defer batch2.Close()

	// Write to both batches
	err = batch1.Put([]byte("key1"), []byte("batch1"))
	require.NoError(t, err)
	err = batch2.Put([]byte("key2"), []byte("batch2"))
	require.NoError(t, err)

	// Commit both batches
	err = batch1.Commit(false)
	require.NoError(t, err)
	err = batch2.Commit(false)
	require.NoError(t, err)

	// Verify both writes succeeded
	val1, err := store.Get([]byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("batch1"), val1)

	val2, err := store.Get([]byte("key2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("batch2"), val2)
}
