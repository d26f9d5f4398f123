package cell

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Codec converts values to bytes and back. PolicySealed uses it to move a
// value into an encrypted enclave while the cell is locked.
//
// Encode may return a slice the codec owns; the cell wipes it after sealing.
// Decode must not retain b, which is wiped as soon as Decode returns.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

// BytesCodec stores byte slices verbatim.
type BytesCodec struct{}

func (BytesCodec) Encode(v []byte) ([]byte, error) { return bytes.Clone(v), nil }
func (BytesCodec) Decode(b []byte) ([]byte, error) { return bytes.Clone(b), nil }

// StringCodec stores strings as their UTF-8 bytes.
type StringCodec struct{}

func (StringCodec) Encode(v string) ([]byte, error) { return []byte(v), nil }
func (StringCodec) Decode(b []byte) (string, error) { return string(b), nil }

// YAMLCodec encodes any yaml-serializable T. Unexported struct fields are not
// preserved across a sealed lock/unlock cycle.
type YAMLCodec[T any] struct{}

func (YAMLCodec[T]) Encode(v T) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAMLCodec[T]) Decode(b []byte) (T, error) {
	var v T
	err := yaml.Unmarshal(b, &v)
	return v, err
}
