package pebbledict

import (
	"github.com/eigerco/pebbledict/pkg/codec"
	"github.com/eigerco/pebbledict/pkg/db/pebble"
)

// Serializer is the injected fallback for values outside the five primitive
// kinds. See codec.Serializer.
type Serializer = codec.Serializer

// Options configures a database handle at open time.
type Options struct {
	// RawMode restricts keys and values to []byte and stores them without
	// tag bytes. The flag is persisted in the database directory and
	// restored on reopen; a database created in one mode must keep it.
	RawMode bool

	// Serializer handles values the tagged codec cannot represent. Nil
	// selects codec.GobSerializer. Keys never use it.
	Serializer codec.Serializer

	// Engine is the tuning bag handed to the storage engine unmodified.
	Engine pebble.Options
}

// DefaultOptions returns the options used when Open receives nil.
func DefaultOptions() *Options {
	return &Options{Serializer: codec.GobSerializer{}}
}

// WriteOptions shape the durability of individual writes made through a
// handle.
type WriteOptions struct {
	// Sync forces the write-ahead log onto stable storage before the
	// write returns. Off by default; the engine still guarantees ordering.
	Sync bool
}

// ReadOptions bound an iterator to a key range. Bounds take any encodable
// key; the lower bound is inclusive, the upper exclusive. Nil means open.
type ReadOptions struct {
	LowerBound any
	UpperBound any
}
