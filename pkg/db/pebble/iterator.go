package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/pebbledict/pkg/db"
)

// Iterator wraps a native engine iterator. It starts unpositioned; Key and
// Value return copies owned by the caller.
type Iterator struct {
	iter *pebble.Iterator
}

// NewIter opens an iterator over [lower, upper); nil bounds are open ends.
func (s *Store) NewIter(lower, upper []byte) (db.Iterator, error) {
	if s.closed.Load() {
		return nil, db.ErrClosed
	}
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("creating iterator: %w", err)
	}
	return &Iterator{iter: it}, nil
}

func (it *Iterator) First() bool {
	return it.iter.First()
}

func (it *Iterator) Last() bool {
	return it.iter.Last()
}

func (it *Iterator) SeekGE(key []byte) bool {
	return it.iter.SeekGE(key)
}

func (it *Iterator) SeekLT(key []byte) bool {
	return it.iter.SeekLT(key)
}

func (it *Iterator) Next() bool {
	return it.iter.Next()
}

func (it *Iterator) Prev() bool {
	return it.iter.Prev()
}

func (it *Iterator) Valid() bool {
	return it.iter.Valid()
}

func (it *Iterator) Key() []byte {
	key := it.iter.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.iter.Valid() {
		return nil, ErrIteratorInvalid
	}

	val, err := it.iter.ValueAndErr()
	if err != nil {
		return nil, fmt.Errorf("reading iterator value: %w", err)
	}

	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (it *Iterator) Error() error {
	return it.iter.Error()
}

func (it *Iterator) Close() error {
	return it.iter.Close()
}
