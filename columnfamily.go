package pebbledict

import (
	"errors"
	"fmt"

	"github.com/eigerco/pebbledict/pkg/log"
)

// ColumnFamily is an opaque selector naming one keyspace partition, used to
// target write batch operations at families other than the batch default.
type ColumnFamily struct {
	name string
	id   uint32
}

// Name returns the partition name the selector was resolved from.
func (cf ColumnFamily) Name() string {
	return cf.name
}

// DefaultColumnFamily selects the partition every database starts with.
func DefaultColumnFamily() ColumnFamily {
	return ColumnFamily{name: DefaultColumnFamilyName, id: defaultColumnFamilyID}
}

// ColumnFamilyHandle resolves name into a selector. The family must already
// exist.
func (d *Dict) ColumnFamilyHandle(name string) (ColumnFamily, error) {
	if d.closed.Load() {
		return ColumnFamily{}, ErrClosed
	}
	d.state.mu.Lock()
	id, ok := d.state.cfg.ColumnFamilies[name]
	d.state.mu.Unlock()
	if !ok {
		return ColumnFamily{}, fmt.Errorf("%w: %q", ErrNoColumnFamily, name)
	}
	return ColumnFamily{name: name, id: id}, nil
}

// ColumnFamily returns a handle bound to the named partition. The handle
// shares this database's engine and closes independently.
func (d *Dict) ColumnFamily(name string) (*Dict, error) {
	cf, err := d.ColumnFamilyHandle(name)
	if err != nil {
		return nil, err
	}
	if !d.state.cell.Acquire() {
		return nil, ErrClosed
	}
	return &Dict{state: d.state, cfName: cf.name, cfID: cf.id, wo: d.wo}, nil
}

// CreateColumnFamily registers a new partition, persists the registry and
// returns a handle bound to it. Family IDs are never reused, so keys of a
// dropped family can never resurface under a new one.
func (d *Dict) CreateColumnFamily(name string) (*Dict, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if d.state.readOnly {
		return nil, ErrReadOnly
	}
	if name == "" {
		return nil, errors.New("pebbledict: column family name must not be empty")
	}

	st := d.state
	st.mu.Lock()
	if _, exists := st.cfg.ColumnFamilies[name]; exists {
		st.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrColumnFamilyExists, name)
	}
	id := st.cfg.NextFamilyID
	st.cfg.ColumnFamilies[name] = id
	st.cfg.NextFamilyID++
	if err := saveConfig(st.fs, st.path, st.cfg); err != nil {
		delete(st.cfg.ColumnFamilies, name)
		st.cfg.NextFamilyID = id
		st.mu.Unlock()
		return nil, fmt.Errorf("persisting column family %q: %w", name, err)
	}
	st.mu.Unlock()

	log.Store.Debug().Str("family", name).Uint32("id", id).Msg("column family created")

	if !st.cell.Acquire() {
		return nil, ErrClosed
	}
	return &Dict{state: st, cfName: name, cfID: id, wo: d.wo}, nil
}

// DropColumnFamily removes the named partition and everything stored in it.
// Handles still bound to it keep working but see an empty span. The default
// family cannot be dropped.
func (d *Dict) DropColumnFamily(name string) error {
	store, err := d.store()
	if err != nil {
		return err
	}
	if d.state.readOnly {
		return ErrReadOnly
	}
	if name == DefaultColumnFamilyName {
		return errors.New("pebbledict: cannot drop the default column family")
	}

	st := d.state
	st.mu.Lock()
	id, ok := st.cfg.ColumnFamilies[name]
	st.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoColumnFamily, name)
	}

	lower, upper := familySpan(id)
	if err := store.DeleteRange(lower, upper, d.wo.Sync); err != nil {
		return convertErr("drop column family", err)
	}

	st.mu.Lock()
	delete(st.cfg.ColumnFamilies, name)
	if err := saveConfig(st.fs, st.path, st.cfg); err != nil {
		st.cfg.ColumnFamilies[name] = id
		st.mu.Unlock()
		return fmt.Errorf("persisting column family drop %q: %w", name, err)
	}
	st.mu.Unlock()

	log.Store.Debug().Str("family", name).Msg("column family dropped")
	return nil
}
