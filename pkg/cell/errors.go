package cell

import "errors"

var (
	// ErrLocked is returned by Allocate while the cell is locked.
	ErrLocked = errors.New("cell is locked")

	// ErrDestroyed is returned by mutators after Reset.
	ErrDestroyed = errors.New("cell is destroyed")

	// ErrNilPointer is returned when a cell is asked to adopt a nil pointer.
	ErrNilPointer = errors.New("cannot adopt a nil pointer")

	// ErrNoCodec is returned when PolicySealed is requested without a codec.
	// The cell falls back to PolicySwap.
	ErrNoCodec = errors.New("sealed policy requires a codec")

	// ErrSeal wraps failures of the sealed policy (encoding, decoding or
	// enclave access).
	ErrSeal = errors.New("sealed storage failure")
)
