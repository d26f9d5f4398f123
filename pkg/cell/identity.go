package cell

import (
	"strconv"
	"sync/atomic"
)

// Identity distinguishes cell instances. It is a process-local counter value
// assigned when a cell's primary storage is established; it carries no
// information about the stored value or its memory location. The zero
// Identity belongs to cells that never held storage.
type Identity uint64

var identities atomic.Uint64

func nextIdentity() Identity {
	return Identity(identities.Add(1))
}

// IsZero reports whether the identity was never assigned.
func (id Identity) IsZero() bool {
	return id == 0
}

// String renders the identity as a lowercase hexadecimal string with a 0x prefix.
func (id Identity) String() string {
	return FormatIdentity(uint64(id))
}

// FormatIdentity renders v as "0x" followed by lowercase hex digits.
// Zero renders as "0x0".
func FormatIdentity(v uint64) string {
	if v == 0 {
		return "0x0"
	}
	return "0x" + strconv.FormatUint(v, 16)
}
