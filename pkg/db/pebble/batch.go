package pebble

import (
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/pebbledict/pkg/db"
)

// Batch wraps a native engine batch. Once committed or closed it refuses
// further work.
type Batch struct {
	batch *pebble.Batch
	done  atomic.Bool
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	return b.batch.Set(key, value, nil)
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	return b.batch.Delete(key, nil)
}

func (b *Batch) DeleteRange(start, end []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	return b.batch.DeleteRange(start, end, nil)
}

func (b *Batch) Count() uint32 {
	// The native batch is pooled after close; don't touch it again.
	if b.done.Load() {
		return 0
	}
	return b.batch.Count()
}

func (b *Batch) Commit(sync bool) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	if err := b.batch.Commit(writeOpt(sync)); err != nil {
		return err
	}
	// The native batch is spent once applied; release it here so a
	// committed Batch needs no separate Close.
	b.done.Store(true)
	return b.batch.Close()
}

func (b *Batch) Close() error {
	if !b.done.CompareAndSwap(false, true) {
		return nil
	}
	return b.batch.Close()
}
