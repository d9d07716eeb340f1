package codec

import (
	"bytes"
	"encoding/gob"
)

// Serializer converts values the tagged codec cannot represent directly. It
// is an injected capability: the codec never inspects the blob it produces.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// GobSerializer is the default opaque-blob serializer, backed by
// encoding/gob. Concrete types carried through it must be registered with
// gob.Register by the embedding program; nil round-trips without
// registration.
type GobSerializer struct{}

// The wrapper struct lets gob carry interface values, including nil.
type gobValue struct {
	V any
}

func (GobSerializer) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobValue{V: v}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobSerializer) Unmarshal(data []byte) (any, error) {
	var out gobValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&out); err != nil {
		return nil, err
	}
	return out.V, nil
}
