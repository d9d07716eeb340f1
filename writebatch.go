package pebbledict

import (
	"fmt"

	"github.com/eigerco/pebbledict/pkg/codec"
)

type opKind uint8

const (
	opPut opKind = iota
	opDelete
	opDeleteRange
)

type batchOp struct {
	kind  opKind
	key   []byte
	value []byte // opPut only
	end   []byte // opDeleteRange only
}

// WriteBatch accumulates mutations without touching an engine: operations
// are encoded as they are added, so a batch can be built before any
// database is open. Apply it with Dict.Write, which consumes it; a consumed
// batch rejects everything with ErrBatchConsumed.
//
// A batch belongs to one goroutine at a time.
type WriteBatch struct {
	raw       bool
	ser       codec.Serializer
	defaultCF ColumnFamily
	ops       []batchOp
	consumed  bool
}

// NewWriteBatch builds an empty batch targeting the default column family.
// opts supplies the codec configuration of the database the batch is meant
// for; nil means defaults.
func NewWriteBatch(opts *Options) *WriteBatch {
	var o Options
	if opts != nil {
		o = *opts
	}
	ser := o.Serializer
	if ser == nil {
		ser = codec.GobSerializer{}
	}
	return &WriteBatch{raw: o.RawMode, ser: ser, defaultCF: DefaultColumnFamily()}
}

// NewWriteBatch builds an empty batch preconfigured for this handle: same
// codec settings, operations default to the handle's column family.
func (d *Dict) NewWriteBatch() *WriteBatch {
	return &WriteBatch{
		raw:       d.state.raw,
		ser:       d.state.ser,
		defaultCF: ColumnFamily{name: d.cfName, id: d.cfID},
	}
}

// Put records storing value under key in the batch's default family.
func (b *WriteBatch) Put(key, value any) error {
	return b.PutCF(b.defaultCF, key, value)
}

// PutCF records storing value under key in the given family.
func (b *WriteBatch) PutCF(cf ColumnFamily, key, value any) error {
	if b.consumed {
		return ErrBatchConsumed
	}
	ek, err := b.encodeKey(cf, key)
	if err != nil {
		return err
	}
	ev, err := codec.EncodeValue(value, b.ser, b.raw)
	if err != nil {
		return err
	}
	b.ops = append(b.ops, batchOp{kind: opPut, key: ek, value: ev})
	return nil
}

// Delete records removing key from the batch's default family.
func (b *WriteBatch) Delete(key any) error {
	return b.DeleteCF(b.defaultCF, key)
}

// DeleteCF records removing key from the given family.
func (b *WriteBatch) DeleteCF(cf ColumnFamily, key any) error {
	if b.consumed {
		return ErrBatchConsumed
	}
	ek, err := b.encodeKey(cf, key)
	if err != nil {
		return err
	}
	b.ops = append(b.ops, batchOp{kind: opDelete, key: ek})
	return nil
}

// DeleteRange records removing every key in [from, to) from the batch's
// default family.
func (b *WriteBatch) DeleteRange(from, to any) error {
	return b.DeleteRangeCF(b.defaultCF, from, to)
}

// DeleteRangeCF records removing every key in [from, to) from the given
// family.
func (b *WriteBatch) DeleteRangeCF(cf ColumnFamily, from, to any) error {
	if b.consumed {
		return ErrBatchConsumed
	}
	start, err := b.encodeKey(cf, from)
	if err != nil {
		return err
	}
	end, err := b.encodeKey(cf, to)
	if err != nil {
		return err
	}
	b.ops = append(b.ops, batchOp{kind: opDeleteRange, key: start, end: end})
	return nil
}

// SetDefaultColumnFamily retargets subsequent untargeted operations.
func (b *WriteBatch) SetDefaultColumnFamily(cf ColumnFamily) error {
	if b.consumed {
		return ErrBatchConsumed
	}
	b.defaultCF = cf
	return nil
}

// Len returns the number of recorded operations.
func (b *WriteBatch) Len() int {
	return len(b.ops)
}

// Clear discards recorded operations; the batch stays usable.
func (b *WriteBatch) Clear() error {
	if b.consumed {
		return ErrBatchConsumed
	}
	b.ops = b.ops[:0]
	return nil
}

func (b *WriteBatch) encodeKey(cf ColumnFamily, key any) ([]byte, error) {
	ek, err := codec.EncodeKey(key, b.raw)
	if err != nil {
		return nil, err
	}
	return append(familyPrefix(cf.id), ek...), nil
}

// Write applies wb atomically: every recorded operation becomes visible
// together, or none does. The batch is consumed whether or not its codec
// configuration matched; a batch built for the wrong mode cannot be
// salvaged.
func (d *Dict) Write(wb *WriteBatch) error {
	store, err := d.store()
	if err != nil {
		return err
	}
	if wb.consumed {
		return ErrBatchConsumed
	}
	wb.consumed = true
	if wb.raw != d.state.raw {
		return fmt.Errorf("%w: batch raw mode does not match the database", ErrUnsupportedType)
	}

	batch, err := store.NewBatch()
	if err != nil {
		return convertErr("write batch", err)
	}
	for _, op := range wb.ops {
		var opErr error
		switch op.kind {
		case opPut:
			opErr = batch.Put(op.key, op.value)
		case opDelete:
			opErr = batch.Delete(op.key)
		case opDeleteRange:
			opErr = batch.DeleteRange(op.key, op.end)
		}
		if opErr != nil {
			_ = batch.Close()
			return convertErr("write batch", opErr)
		}
	}
	if err := batch.Commit(d.wo.Sync); err != nil {
		_ = batch.Close()
		return convertErr("write batch commit", err)
	}
	return nil
}
