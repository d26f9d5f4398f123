package cell

import (
	"bytes"

	"github.com/systmms/securecell/internal/secure"
)

// NewBytes returns a cell holding a copy of b, configured for byte secrets:
// snapshots are deep copies, released slots are wiped with memguard, and
// BytesCodec is installed so PolicySealed works. Options given by the caller
// are applied after these defaults.
//
// The cell does not wipe b; callers should do so once the cell exists.
func NewBytes(b []byte, opts ...Option) *Cell[[]byte] {
	return FromValue(b, append(byteDefaults(), opts...)...)
}

// NewBytesOwned returns a byte cell that takes over b without copying it.
func NewBytesOwned(b []byte, opts ...Option) *Cell[[]byte] {
	return FromOwned(b, append(byteDefaults(), opts...)...)
}

func byteDefaults() []Option {
	return []Option{
		WithClone(bytes.Clone),
		WithWipe(wipeByteSlot),
		WithCodec[[]byte](BytesCodec{}),
	}
}

func wipeByteSlot(p *[]byte) {
	secure.WipeBytes(*p)
	*p = nil
}
