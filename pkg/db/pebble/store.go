package pebble

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/pebbledict/pkg/db"
	"github.com/eigerco/pebbledict/pkg/log"
)

// Store implements db.Store on top of cockroachdb/pebble.
type Store struct {
	db       *pebble.DB
	readOnly bool
	closed   atomic.Bool
}

// Open opens the engine at path, creating it when absent (unless the options
// say otherwise). The engine holds a lock file, so a directory can back at
// most one live Store at a time.
func Open(path string, opts Options) (*Store, error) {
	popts, cache := opts.engineOptions()
	defer cache.Unref()

	pdb, err := pebble.Open(path, popts)
	if err != nil {
		return nil, fmt.Errorf("opening store at %q: %w", path, err)
	}
	return &Store{db: pdb, readOnly: opts.ReadOnly}, nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, db.ErrClosed
	}

	value, closer, err := s.db.Get(key)
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

func (s *Store) Has(key []byte) (bool, error) {
	if s.closed.Load() {
		return false, db.ErrClosed
	}

	_, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func (s *Store) Put(key, value []byte, sync bool) error {
	if s.closed.Load() {
		return db.ErrClosed
	}
	return s.db.Set(key, value, writeOpt(sync))
}

func (s *Store) Delete(key []byte, sync bool) error {
	if s.closed.Load() {
		return db.ErrClosed
	}
	return s.db.Delete(key, writeOpt(sync))
}

func (s *Store) DeleteRange(start, end []byte, sync bool) error {
	if s.closed.Load() {
		return db.ErrClosed
	}
	return s.db.DeleteRange(start, end, writeOpt(sync))
}

func (s *Store) NewBatch() (db.Batch, error) {
	if s.closed.Load() {
		return nil, db.ErrClosed
	}
	return &Batch{batch: s.db.NewBatch()}, nil
}

func (s *Store) NewSnapshot() (db.Snapshot, error) {
	if s.closed.Load() {
		return nil, db.ErrClosed
	}
	return &Snapshot{snap: s.db.NewSnapshot()}, nil
}

func (s *Store) Checkpoint(destDir string) error {
	if s.closed.Load() {
		return db.ErrClosed
	}
	if err := s.db.Checkpoint(destDir, pebble.WithFlushedWAL()); err != nil {
		return fmt.Errorf("creating checkpoint at %q: %w", destDir, err)
	}
	return nil
}

func (s *Store) Flush() error {
	if s.closed.Load() {
		return db.ErrClosed
	}
	if err := s.db.Flush(); err != nil {
		return fmt.Errorf("flushing memtable: %w", err)
	}
	return nil
}

func (s *Store) Compact(start, end []byte) error {
	if s.closed.Load() {
		return db.ErrClosed
	}
	return s.db.Compact(start, end, true)
}

func (s *Store) EstimateDiskUsage(start, end []byte) (uint64, error) {
	if s.closed.Load() {
		return 0, db.ErrClosed
	}
	return s.db.EstimateDiskUsage(start, end)
}

func (s *Store) Metrics() (string, error) {
	if s.closed.Load() {
		return "", db.ErrClosed
	}
	return s.db.Metrics().String(), nil
}

// Close flushes best-effort, cancels background work and releases the
// directory lock. The first call wins; later calls are no-ops.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !s.readOnly {
		if err := s.db.Flush(); err != nil {
			// Teardown has no caller to hand this to.
			log.Store.Warn().Err(err).Msg("flush before close failed")
		}
	}
	return s.db.Close()
}

func writeOpt(sync bool) *pebble.WriteOptions {
	if sync {
		return pebble.Sync
	}
	return pebble.NoSync
}
