package refcount

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeOnLastRelease(t *testing.T) {
	finalized := 0
	cell := New("resource", func(string) error {
		finalized++
		return nil
	})

	require.True(t, cell.Acquire())
	require.True(t, cell.Acquire())
	assert.Equal(t, 3, cell.Refs())

	require.NoError(t, cell.Release())
	require.NoError(t, cell.Release())
	assert.Equal(t, 0, finalized, "finalizer must wait for the last holder")

	require.NoError(t, cell.Release())
	assert.Equal(t, 1, finalized)
}

func TestFinalizerErrorGoesToLastReleaser(t *testing.T) {
	errBoom := errors.New("boom")
	cell := New(0, func(int) error { return errBoom })

	require.True(t, cell.Acquire())
	assert.NoError(t, cell.Release())
	assert.ErrorIs(t, cell.Release(), errBoom)
}

func TestNoReviveAfterFinalize(t *testing.T) {
	cell := New(0, func(int) error { return nil })

	require.NoError(t, cell.Release())
	assert.False(t, cell.Acquire())
	assert.NoError(t, cell.Release(), "releasing a dead cell is a no-op")
}

func TestConcurrentHolders(t *testing.T) {
	const holders = 64

	finalized := 0
	cell := New(struct{}{}, func(struct{}) error {
		finalized++
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < holders; i++ {
		require.True(t, cell.Acquire())
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cell.Release())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, cell.Refs())
	require.NoError(t, cell.Release())
	assert.Equal(t, 1, finalized)
}
