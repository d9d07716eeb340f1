package pebbledict

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble/vfs"

	"github.com/eigerco/pebbledict/internal/refcount"
	"github.com/eigerco/pebbledict/pkg/codec"
	"github.com/eigerco/pebbledict/pkg/db"
	"github.com/eigerco/pebbledict/pkg/db/pebble"
	"github.com/eigerco/pebbledict/pkg/log"
)

// dbState is shared by every handle, snapshot, iterator and checkpoint
// derived from one open database. The cell owns the engine; it closes when
// the last of them lets go.
type dbState struct {
	path     string
	fs       vfs.FS
	raw      bool
	ser      codec.Serializer
	readOnly bool

	cell *refcount.Cell[db.Store]

	mu  sync.Mutex // guards cfg
	cfg *dbConfig
}

// iterBounds clamps an iterator inside the family's envelope and applies
// optional typed bounds.
func (st *dbState) iterBounds(cfID uint32, ro *ReadOptions) ([]byte, []byte, error) {
	lower, upper := familySpan(cfID)
	if ro == nil {
		return lower, upper, nil
	}
	if ro.LowerBound != nil {
		ek, err := codec.EncodeKey(ro.LowerBound, st.raw)
		if err != nil {
			return nil, nil, err
		}
		lower = append(familyPrefix(cfID), ek...)
	}
	if ro.UpperBound != nil {
		ek, err := codec.EncodeKey(ro.UpperBound, st.raw)
		if err != nil {
			return nil, nil, err
		}
		upper = append(familyPrefix(cfID), ek...)
	}
	return lower, upper, nil
}

// Dict is a typed dictionary over one ordered storage directory. Handles
// are cheap and safe to share across goroutines; iterators and write
// batches derived from them are not.
//
// A Dict is bound to one column family. Handles for other families come
// from ColumnFamily and CreateColumnFamily and share the same engine; each
// closes independently.
type Dict struct {
	state  *dbState
	cfName string
	cfID   uint32
	wo     WriteOptions
	closed atomic.Bool
}

// Open opens (creating if needed) the database at path. With nil opts the
// persisted configuration decides raw mode; explicit opts overwrite it.
// A directory backs at most one open database at a time.
func Open(path string, opts *Options) (*Dict, error) {
	explicit := opts != nil
	var o Options
	if explicit {
		o = *opts
	} else {
		o = *DefaultOptions()
	}
	if o.Serializer == nil {
		o.Serializer = codec.GobSerializer{}
	}
	fs := o.Engine.Filesystem()

	cfg, err := loadConfig(fs, path)
	switch {
	case err == nil:
		if explicit {
			cfg.RawMode = o.RawMode
		}
	case errors.Is(err, os.ErrNotExist):
		cfg = defaultDBConfig(o.RawMode)
	default:
		return nil, fmt.Errorf("opening database at %q: %w", path, err)
	}

	store, err := pebble.Open(path, o.Engine)
	if err != nil {
		return nil, &EngineError{Op: "open", Err: err}
	}

	if !o.Engine.ReadOnly {
		if err := saveConfig(fs, path, cfg); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	state := &dbState{
		path:     path,
		fs:       fs,
		raw:      cfg.RawMode,
		ser:      o.Serializer,
		readOnly: o.Engine.ReadOnly,
		cfg:      cfg,
	}
	state.cell = refcount.New[db.Store](store, func(s db.Store) error {
		log.Store.Debug().Str("path", path).Msg("closing storage engine")
		return s.Close()
	})

	log.Store.Debug().Str("path", path).Bool("raw_mode", cfg.RawMode).Msg("database opened")

	return &Dict{state: state, cfName: DefaultColumnFamilyName, cfID: defaultColumnFamilyID}, nil
}

// store hands out the engine while this handle is logically open. The
// refcount keeps the engine itself alive for derived objects even after the
// handle closes.
func (d *Dict) store() (db.Store, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	return d.state.cell.Value(), nil
}

func (d *Dict) encodeKey(key any) ([]byte, error) {
	ek, err := codec.EncodeKey(key, d.state.raw)
	if err != nil {
		return nil, err
	}
	return append(familyPrefix(d.cfID), ek...), nil
}

// Get returns the decoded value stored under key, or ErrNotFound.
func (d *Dict) Get(key any) (any, error) {
	store, err := d.store()
	if err != nil {
		return nil, err
	}
	ek, err := d.encodeKey(key)
	if err != nil {
		return nil, err
	}
	raw, err := store.Get(ek)
	if err != nil {
		return nil, convertErr("get", err)
	}
	return codec.DecodeValue(raw, d.state.ser, d.state.raw)
}

// GetMulti looks up several keys. Missing keys leave nil slots; any other
// failure aborts the lookup.
func (d *Dict) GetMulti(keys []any) ([]any, error) {
	if _, err := d.store(); err != nil {
		return nil, err
	}
	values := make([]any, len(keys))
	for i, key := range keys {
		v, err := d.Get(key)
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

// Has reports whether key is present, without decoding its value.
func (d *Dict) Has(key any) (bool, error) {
	store, err := d.store()
	if err != nil {
		return false, err
	}
	ek, err := d.encodeKey(key)
	if err != nil {
		return false, err
	}
	ok, err := store.Has(ek)
	if err != nil {
		return false, convertErr("has", err)
	}
	return ok, nil
}

// Put stores value under key, replacing any previous value.
func (d *Dict) Put(key, value any) error {
	store, err := d.store()
	if err != nil {
		return err
	}
	ek, err := d.encodeKey(key)
	if err != nil {
		return err
	}
	ev, err := codec.EncodeValue(value, d.state.ser, d.state.raw)
	if err != nil {
		return err
	}
	return convertErr("put", store.Put(ek, ev, d.wo.Sync))
}

// Delete removes key. Deleting an absent key is not an error.
func (d *Dict) Delete(key any) error {
	store, err := d.store()
	if err != nil {
		return err
	}
	ek, err := d.encodeKey(key)
	if err != nil {
		return err
	}
	return convertErr("delete", store.Delete(ek, d.wo.Sync))
}

// DeleteRange removes every key in [from, to) within this column family.
func (d *Dict) DeleteRange(from, to any) error {
	store, err := d.store()
	if err != nil {
		return err
	}
	start, err := d.encodeKey(from)
	if err != nil {
		return err
	}
	end, err := d.encodeKey(to)
	if err != nil {
		return err
	}
	return convertErr("delete range", store.DeleteRange(start, end, d.wo.Sync))
}

// Flush forces buffered writes onto stable storage.
func (d *Dict) Flush() error {
	store, err := d.store()
	if err != nil {
		return err
	}
	return convertErr("flush", store.Flush())
}

// CompactRange reorganizes the span [from, to] of this column family; nil
// ends extend to the family's edges.
func (d *Dict) CompactRange(from, to any) error {
	store, err := d.store()
	if err != nil {
		return err
	}
	lower, upper, err := d.spanBounds(from, to)
	if err != nil {
		return err
	}
	return convertErr("compact", store.Compact(lower, upper))
}

// EstimateDiskUsage approximates the on-disk footprint of the span
// [from, to] of this column family; nil ends extend to the family's edges.
func (d *Dict) EstimateDiskUsage(from, to any) (uint64, error) {
	store, err := d.store()
	if err != nil {
		return 0, err
	}
	lower, upper, err := d.spanBounds(from, to)
	if err != nil {
		return 0, err
	}
	n, err := store.EstimateDiskUsage(lower, upper)
	if err != nil {
		return 0, convertErr("disk usage", err)
	}
	return n, nil
}

func (d *Dict) spanBounds(from, to any) ([]byte, []byte, error) {
	lower, upper := familySpan(d.cfID)
	if from != nil {
		ek, err := d.encodeKey(from)
		if err != nil {
			return nil, nil, err
		}
		lower = ek
	}
	if to != nil {
		ek, err := d.encodeKey(to)
		if err != nil {
			return nil, nil, err
		}
		upper = ek
	}
	return lower, upper, nil
}

// Metrics renders the engine's internal counters, for diagnostics.
func (d *Dict) Metrics() (string, error) {
	store, err := d.store()
	if err != nil {
		return "", err
	}
	m, err := store.Metrics()
	if err != nil {
		return "", convertErr("metrics", err)
	}
	return m, nil
}

// SetWriteOptions applies to subsequent writes through this handle. Not for
// use concurrently with writes in flight.
func (d *Dict) SetWriteOptions(wo WriteOptions) {
	d.wo = wo
}

// Path returns the storage directory backing this database.
func (d *Dict) Path() string {
	return d.state.path
}

// RawMode reports whether the database stores untagged byte strings.
func (d *Dict) RawMode() bool {
	return d.state.raw
}

// ColumnFamilyName names the partition this handle is bound to.
func (d *Dict) ColumnFamilyName() string {
	return d.cfName
}

// Close marks the handle closed and gives up its engine reference. The
// engine shuts down once the last derived snapshot, iterator or checkpoint
// is released too. Closing again is a no-op.
func (d *Dict) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	log.Store.Debug().Str("path", d.state.path).Str("family", d.cfName).Msg("handle closed")
	return convertErr("close", d.state.cell.Release())
}

// CloseAndDestroy closes this handle and removes the directory. It fails
// while other handles or derived objects keep the engine open.
func (d *Dict) CloseAndDestroy() error {
	path, fs := d.state.path, d.state.fs
	if err := d.Close(); err != nil {
		return err
	}
	return destroyTree(fs, path)
}

// Destroy removes the database directory outright. It refuses a directory
// that a live engine still holds locked.
func Destroy(path string, opts *Options) error {
	fs := vfs.Default
	if opts != nil {
		fs = opts.Engine.Filesystem()
	}
	return destroyTree(fs, path)
}

func destroyTree(fs vfs.FS, path string) error {
	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	lock, err := fs.Lock(fs.PathJoin(path, "LOCK"))
	if err != nil {
		return fmt.Errorf("pebbledict: database at %q is in use: %w", path, err)
	}
	defer lock.Close()

	if err := fs.RemoveAll(path); err != nil {
		return &EngineError{Op: "destroy", Err: err}
	}
	log.Store.Debug().Str("path", path).Msg("database destroyed")
	return nil
}
