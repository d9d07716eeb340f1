// Package pebbledict stores heterogeneous Go values in an ordered,
// embedded key-value store, with the persistence handled by pebble.
//
// Keys and values are dynamically typed: byte slices, strings, booleans,
// integers of any width (including *big.Int) and floats all round-trip
// through a compact tagged encoding, and any other value type can be
// carried as an opaque blob through a pluggable Serializer (encoding/gob
// by default). A database opened in raw mode skips the tagging entirely
// and works on plain byte strings; the mode is recorded in the database
// directory and the two modes never mix.
//
//	d, err := pebbledict.Open(dir, nil)
//	...
//	defer d.Close()
//
//	_ = d.Put("answer", 42)
//	_ = d.Put(1984, []byte{0x07})
//	v, err := d.Get("answer") // int64(42)
//
// Beyond point reads and writes the package offers ordered iteration
// (Iterator, Items, Keys, Values), consistent reads (Snapshot), atomic
// multi-key writes (WriteBatch), openable physical copies (Checkpoint)
// and lightweight keyspace partitions (column families).
//
// String keys iterate in their natural order. Numeric keys do not: the
// integer and float encodings are not ordered byte-lexicographically, so
// mixed-type scans follow encoding order, not numeric order.
//
// A Dict, its snapshots, iterators and checkpoints each hold the
// underlying engine open; the engine shuts down when the last of them is
// closed. Closing a handle twice is harmless.
package pebbledict
