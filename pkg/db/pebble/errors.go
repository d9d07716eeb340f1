package pebble

import "errors"

var ErrIteratorInvalid = errors.New("storage: iterator is not positioned on a key")
