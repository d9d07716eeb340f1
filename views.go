package pebbledict

// seqView is the stepper behind Items, Keys and Values: a direction, an
// optional start key, and decode-then-advance on every pull.
type seqView struct {
	it        *Iterator
	backwards bool
	wantKey   bool
	wantValue bool

	key   any
	value any
	err   error
	done  bool
}

func newSeqView(it *Iterator, backwards bool, from any, wantKey, wantValue bool) (*seqView, error) {
	switch {
	case from != nil && backwards:
		it.SeekForPrev(from)
	case from != nil:
		it.Seek(from)
	case backwards:
		it.SeekToLast()
	default:
		it.SeekToFirst()
	}
	if err := it.Err(); err != nil {
		_ = it.Close()
		return nil, err
	}
	return &seqView{it: it, backwards: backwards, wantKey: wantKey, wantValue: wantValue}, nil
}

func (v *seqView) next() bool {
	if v.done {
		return false
	}
	if !v.it.Valid() {
		v.done = true
		v.err = v.it.Err()
		return false
	}
	if v.wantKey {
		k, err := v.it.Key()
		if err != nil {
			v.err = err
			v.done = true
			return false
		}
		v.key = k
	}
	if v.wantValue {
		val, err := v.it.Value()
		if err != nil {
			v.err = err
			v.done = true
			return false
		}
		v.value = val
	}
	if v.backwards {
		v.it.Prev()
	} else {
		v.it.Next()
	}
	return true
}

// Items is a one-pass view over decoded key/value pairs.
//
//	items, err := d.Items(false, nil)
//	...
//	defer items.Close()
//	for items.Next() {
//		use(items.Key(), items.Value())
//	}
//	if err := items.Err(); err != nil { ... }
type Items struct {
	v *seqView
}

// Next advances to the next pair and reports whether one is available.
func (x *Items) Next() bool { return x.v.next() }

// Key returns the key of the current pair.
func (x *Items) Key() any { return x.v.key }

// Value returns the value of the current pair.
func (x *Items) Value() any { return x.v.value }

// Err reports the failure that stopped the view, if any.
func (x *Items) Err() error { return x.v.err }

// Close releases the view's iterator.
func (x *Items) Close() error { return x.v.it.Close() }

// Keys is a one-pass view over decoded keys.
type Keys struct {
	v *seqView
}

// Next advances to the next key and reports whether one is available.
func (k *Keys) Next() bool { return k.v.next() }

// Key returns the current key.
func (k *Keys) Key() any { return k.v.key }

// Err reports the failure that stopped the view, if any.
func (k *Keys) Err() error { return k.v.err }

// Close releases the view's iterator.
func (k *Keys) Close() error { return k.v.it.Close() }

// Values is a one-pass view over decoded values.
type Values struct {
	v *seqView
}

// Next advances to the next value and reports whether one is available.
func (x *Values) Next() bool { return x.v.next() }

// Value returns the current value.
func (x *Values) Value() any { return x.v.value }

// Err reports the failure that stopped the view, if any.
func (x *Values) Err() error { return x.v.err }

// Close releases the view's iterator.
func (x *Values) Close() error { return x.v.it.Close() }

// Items walks this handle's column family, decoding pairs as it goes. With
// backwards set it runs from largest key to smallest. A non-nil from seeds
// the walk: the first key >= from going forward, the last key <= from going
// backward.
func (d *Dict) Items(backwards bool, from any) (*Items, error) {
	it, err := d.NewIter(nil)
	if err != nil {
		return nil, err
	}
	v, err := newSeqView(it, backwards, from, true, true)
	if err != nil {
		return nil, err
	}
	return &Items{v: v}, nil
}

// Keys walks this handle's column family yielding keys only. Direction and
// seeding follow Items.
func (d *Dict) Keys(backwards bool, from any) (*Keys, error) {
	it, err := d.NewIter(nil)
	if err != nil {
		return nil, err
	}
	v, err := newSeqView(it, backwards, from, true, false)
	if err != nil {
		return nil, err
	}
	return &Keys{v: v}, nil
}

// Values walks this handle's column family yielding values only. Direction
// and seeding follow Items.
func (d *Dict) Values(backwards bool, from any) (*Values, error) {
	it, err := d.NewIter(nil)
	if err != nil {
		return nil, err
	}
	v, err := newSeqView(it, backwards, from, false, true)
	if err != nil {
		return nil, err
	}
	return &Values{v: v}, nil
}
