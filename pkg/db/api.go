// Package db defines the seam between the typed dictionary layer and the
// underlying ordered key-value engine. Everything above this package deals
// in already-encoded byte strings; everything below deals with one concrete
// engine.
package db

// Store is an open engine instance over one storage directory.
type Store interface {
	Reader
	Writer

	// NewBatch starts an empty atomic batch bound to this store.
	NewBatch() (Batch, error)

	// NewSnapshot pins the store's current state. The snapshot stays
	// readable until closed, regardless of later writes.
	NewSnapshot() (Snapshot, error)

	// Checkpoint materializes a consistent physical copy of the store in
	// destDir, which must not already exist.
	Checkpoint(destDir string) error

	// Flush forces memtable contents onto stable storage.
	Flush() error

	// Compact reorganizes the given key span. Requires start < end.
	Compact(start, end []byte) error

	// EstimateDiskUsage approximates the on-disk footprint of a key span.
	EstimateDiskUsage(start, end []byte) (uint64, error)

	// Metrics renders the engine's internal counters.
	Metrics() (string, error)

	// Close cancels background work and releases the directory lock.
	// Safe to call twice.
	Close() error
}

type Reader interface {
	// Get returns the value for key, or ErrNotFound. The returned slice is
	// the caller's to keep.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// NewIter iterates keys in [lower, upper); nil bounds are open ends.
	NewIter(lower, upper []byte) (Iterator, error)
}

type Writer interface {
	Put(key, value []byte, sync bool) error
	Delete(key []byte, sync bool) error
	DeleteRange(start, end []byte, sync bool) error
}

// Batch represents an atomic batch of operations. All operations in a batch
// become visible together or not at all. A batch is single-use: once
// committed or closed it refuses further work.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	DeleteRange(start, end []byte) error
	Count() uint32
	Commit(sync bool) error
	Close() error
}

// Snapshot is a read-only view of the store at creation time. Snapshots must
// be closed after use.
type Snapshot interface {
	Get(key []byte) ([]byte, error)
	NewIter(lower, upper []byte) (Iterator, error)
	Close() error
}

// Iterator provides positioned access over a range of key-value pairs. An
// iterator starts unpositioned; callers seek first. Key and Value return
// copies that survive later moves. Iterators must be closed after use.
type Iterator interface {
	First() bool
	Last() bool
	// SeekGE positions at the first key >= target.
	SeekGE(key []byte) bool
	// SeekLT positions at the last key < target.
	SeekLT(key []byte) bool
	Next() bool
	Prev() bool
	Valid() bool
	Key() []byte
	Value() ([]byte, error)
	// Error reports an engine-level read failure, nil after clean
	// exhaustion.
	Error() error
	Close() error
}
