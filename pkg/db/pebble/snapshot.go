package pebble

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/pebbledict/pkg/db"
)

// Snapshot wraps a native engine snapshot: a sequence-number pin that reads
// the store as of creation time.
type Snapshot struct {
	snap   *pebble.Snapshot
	closed atomic.Bool
}

func (s *Snapshot) Get(key []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, db.ErrClosed
	}

	value, closer, err := s.snap.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (s *Snapshot) NewIter(lower, upper []byte) (db.Iterator, error) {
	if s.closed.Load() {
		return nil, db.ErrClosed
	}
	it, err := s.snap.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot iterator: %w", err)
	}
	return &Iterator{iter: it}, nil
}

// Close releases the pin back to the engine. Safe to call twice.
func (s *Snapshot) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.snap.Close()
}
