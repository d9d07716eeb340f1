package pebbledict

import (
	"fmt"
	"sync/atomic"

	"github.com/eigerco/pebbledict/pkg/codec"
	"github.com/eigerco/pebbledict/pkg/db"
)

// Iterator is a movable position over one column family's keys in byte
// order of their encodings. It starts unpositioned; call one of the seeks
// first. Not safe for concurrent use.
//
// An open iterator keeps the engine alive even after its parent handle
// closes, so Close it when done.
type Iterator struct {
	it      db.Iterator
	release func() error
	cfID    uint32
	raw     bool
	ser     codec.Serializer
	err     error
	closed  atomic.Bool
}

// NewIter opens an iterator over this handle's column family. Optional
// typed bounds in ro restrict the window: lower inclusive, upper exclusive.
func (d *Dict) NewIter(ro *ReadOptions) (*Iterator, error) {
	store, err := d.store()
	if err != nil {
		return nil, err
	}
	lower, upper, err := d.state.iterBounds(d.cfID, ro)
	if err != nil {
		return nil, err
	}
	if !d.state.cell.Acquire() {
		return nil, ErrClosed
	}
	it, err := store.NewIter(lower, upper)
	if err != nil {
		_ = d.state.cell.Release()
		return nil, convertErr("iterator", err)
	}
	return &Iterator{
		it:      it,
		release: d.state.cell.Release,
		cfID:    d.cfID,
		raw:     d.state.raw,
		ser:     d.state.ser,
	}, nil
}

// SeekToFirst moves to the smallest key and reports whether one exists.
func (it *Iterator) SeekToFirst() bool {
	it.err = nil
	return it.it.First()
}

// SeekToLast moves to the largest key and reports whether one exists.
func (it *Iterator) SeekToLast() bool {
	it.err = nil
	return it.it.Last()
}

// Seek moves to the first key >= target. A target that cannot be encoded
// invalidates the position and is reported by Err; the next seek starts
// clean.
func (it *Iterator) Seek(target any) bool {
	it.err = nil
	ek, err := it.seekKey(target)
	if err != nil {
		it.err = err
		return false
	}
	return it.it.SeekGE(ek)
}

// SeekForPrev moves to the last key <= target.
func (it *Iterator) SeekForPrev(target any) bool {
	it.err = nil
	ek, err := it.seekKey(target)
	if err != nil {
		it.err = err
		return false
	}
	// No key sorts strictly between target and target+0x00, so the last
	// key below that is the last key <= target.
	return it.it.SeekLT(append(ek, 0))
}

func (it *Iterator) seekKey(target any) ([]byte, error) {
	ek, err := codec.EncodeKey(target, it.raw)
	if err != nil {
		return nil, err
	}
	return append(familyPrefix(it.cfID), ek...), nil
}

// Next moves forward one key.
func (it *Iterator) Next() bool {
	return it.it.Next()
}

// Prev moves backward one key.
func (it *Iterator) Prev() bool {
	return it.it.Prev()
}

// Valid reports whether the iterator is positioned on a key.
func (it *Iterator) Valid() bool {
	return it.it.Valid()
}

// Key decodes the key under the cursor.
func (it *Iterator) Key() (any, error) {
	if !it.it.Valid() {
		return nil, ErrIteratorInvalid
	}
	ek := it.it.Key()
	if len(ek) < familyPrefixLen {
		return nil, fmt.Errorf("%w: stored key shorter than its family envelope", ErrDecode)
	}
	return codec.DecodeKey(ek[familyPrefixLen:], it.raw)
}

// Value decodes the value under the cursor.
func (it *Iterator) Value() (any, error) {
	if !it.it.Valid() {
		return nil, ErrIteratorInvalid
	}
	raw, err := it.it.Value()
	if err != nil {
		return nil, convertErr("iterator value", err)
	}
	return codec.DecodeValue(raw, it.ser, it.raw)
}

// Err distinguishes clean exhaustion from an engine read failure or a
// rejected seek target. A valid position implies nil.
func (it *Iterator) Err() error {
	if it.err != nil {
		return it.err
	}
	if err := it.it.Error(); err != nil {
		return convertErr("iterator", err)
	}
	return nil
}

// Close releases the iterator and its hold on the engine. Closing again is
// a no-op.
func (it *Iterator) Close() error {
	if !it.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := it.it.Close()
	if rerr := it.release(); rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		return convertErr("iterator close", err)
	}
	return nil
}
