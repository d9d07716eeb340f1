package pebbledict

import (
	"errors"
	"fmt"

	"github.com/eigerco/pebbledict/pkg/codec"
	"github.com/eigerco/pebbledict/pkg/db"
)

var (
	// ErrClosed is returned by every operation on a handle after Close or
	// Destroy. Closing twice is not an error.
	ErrClosed = errors.New("pebbledict: database is closed")

	// ErrNotFound marks a point-lookup miss. A present key with an empty
	// value does not produce it.
	ErrNotFound = errors.New("pebbledict: key not found")

	// ErrBatchConsumed is returned when a write batch is mutated or
	// applied after it has already been applied once.
	ErrBatchConsumed = errors.New("pebbledict: write batch already consumed")

	// ErrIteratorInvalid is returned by Key and Value when the iterator is
	// not positioned on an entry.
	ErrIteratorInvalid = errors.New("pebbledict: iterator is not positioned on a key")

	ErrNoColumnFamily     = errors.New("pebbledict: column family does not exist")
	ErrColumnFamilyExists = errors.New("pebbledict: column family already exists")
	ErrReadOnly           = errors.New("pebbledict: database is read-only")
)

// Codec errors, re-exported so callers can match without importing the codec
// package.
var (
	ErrUnsupportedType = codec.ErrUnsupportedType
	ErrDecode          = codec.ErrDecode
)

// EngineError wraps a failure reported by the storage engine: I/O trouble,
// corruption, a checkpoint target that already exists. Op names the
// operation that hit it.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("pebbledict: engine %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// convertErr lifts storage-layer errors into the package's error kinds.
// Anything that is not one of the known sentinels is an engine failure.
func convertErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, db.ErrClosed):
		return ErrClosed
	case errors.Is(err, db.ErrBatchDone):
		return ErrBatchConsumed
	}
	return &EngineError{Op: op, Err: err}
}
