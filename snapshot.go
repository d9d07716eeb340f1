package pebbledict

import (
	"errors"
	"sync/atomic"

	"github.com/eigerco/pebbledict/internal/refcount"
	"github.com/eigerco/pebbledict/pkg/codec"
	"github.com/eigerco/pebbledict/pkg/db"
)

// Snapshot is a consistent read-only view of one column family, frozen at
// creation time. Writes made afterwards never show through it.
//
// The snapshot holds the engine open until released, even if the handle
// that produced it closes first.
type Snapshot struct {
	state  *dbState
	cfName string
	cfID   uint32
	cell   *refcount.Cell[db.Snapshot]
	closed atomic.Bool
}

// NewSnapshot freezes the current contents of this handle's column family.
func (d *Dict) NewSnapshot() (*Snapshot, error) {
	store, err := d.store()
	if err != nil {
		return nil, err
	}
	if !d.state.cell.Acquire() {
		return nil, ErrClosed
	}
	snap, err := store.NewSnapshot()
	if err != nil {
		_ = d.state.cell.Release()
		return nil, convertErr("snapshot", err)
	}
	engine := d.state.cell
	cell := refcount.New[db.Snapshot](snap, func(s db.Snapshot) error {
		// The pin goes back before the engine reference drops.
		err := s.Close()
		if rerr := engine.Release(); rerr != nil && err == nil {
			err = rerr
		}
		return err
	})
	return &Snapshot{state: d.state, cfName: d.cfName, cfID: d.cfID, cell: cell}, nil
}

func (s *Snapshot) snap() (db.Snapshot, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	return s.cell.Value(), nil
}

// Get returns the value key had when the snapshot was taken, or ErrNotFound.
func (s *Snapshot) Get(key any) (any, error) {
	snap, err := s.snap()
	if err != nil {
		return nil, err
	}
	ek, err := codec.EncodeKey(key, s.state.raw)
	if err != nil {
		return nil, err
	}
	raw, err := snap.Get(append(familyPrefix(s.cfID), ek...))
	if err != nil {
		return nil, convertErr("snapshot get", err)
	}
	return codec.DecodeValue(raw, s.state.ser, s.state.raw)
}

// GetMulti looks up several keys in the frozen view. Missing keys leave nil
// slots; any other failure aborts.
func (s *Snapshot) GetMulti(keys []any) ([]any, error) {
	if _, err := s.snap(); err != nil {
		return nil, err
	}
	values := make([]any, len(keys))
	for i, key := range keys {
		v, err := s.Get(key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// Has reports whether key was present when the snapshot was taken.
func (s *Snapshot) Has(key any) (bool, error) {
	_, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ColumnFamilyName names the partition this snapshot is bound to.
func (s *Snapshot) ColumnFamilyName() string {
	return s.cfName
}

// NewIter opens an iterator over the frozen view. Optional typed bounds in
// ro restrict the window: lower inclusive, upper exclusive.
func (s *Snapshot) NewIter(ro *ReadOptions) (*Iterator, error) {
	snap, err := s.snap()
	if err != nil {
		return nil, err
	}
	lower, upper, err := s.state.iterBounds(s.cfID, ro)
	if err != nil {
		return nil, err
	}
	if !s.cell.Acquire() {
		return nil, ErrClosed
	}
	it, err := snap.NewIter(lower, upper)
	if err != nil {
		_ = s.cell.Release()
		return nil, convertErr("snapshot iterator", err)
	}
	return &Iterator{
		it:      it,
		release: s.cell.Release,
		cfID:    s.cfID,
		raw:     s.state.raw,
		ser:     s.state.ser,
	}, nil
}

// Items walks the frozen view, decoding pairs. Direction and seeding follow
// Dict.Items.
func (s *Snapshot) Items(backwards bool, from any) (*Items, error) {
	it, err := s.NewIter(nil)
	if err != nil {
		return nil, err
	}
	v, err := newSeqView(it, backwards, from, true, true)
	if err != nil {
		return nil, err
	}
	return &Items{v: v}, nil
}

// Keys walks the frozen view yielding keys only.
func (s *Snapshot) Keys(backwards bool, from any) (*Keys, error) {
	it, err := s.NewIter(nil)
	if err != nil {
		return nil, err
	}
	v, err := newSeqView(it, backwards, from, true, false)
	if err != nil {
		return nil, err
	}
	return &Keys{v: v}, nil
}

// Values walks the frozen view yielding values only.
func (s *Snapshot) Values(backwards bool, from any) (*Values, error) {
	it, err := s.NewIter(nil)
	if err != nil {
		return nil, err
	}
	v, err := newSeqView(it, backwards, from, false, true)
	if err != nil {
		return nil, err
	}
	return &Values{v: v}, nil
}

// Close releases the frozen view and its hold on the engine. Iterators
// derived from the snapshot keep both alive until they close too. Closing
// again is a no-op.
func (s *Snapshot) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return convertErr("snapshot close", s.cell.Release())
}
