// Package secure provides memory-safe handling of sensitive bytes for cells.
//
// This package wraps the memguard library. A locked cell using the sealed
// policy keeps its value here, encoded and:
//
//   - Encrypted at rest in memory (XSalsa20Poly1305)
//   - Decrypted only into guarded, mlocked buffers for the duration of View
//   - Wiped from those buffers as soon as View returns
//
// # Usage
//
//	buf := secure.Seal(encoded) // encoded is wiped
//	defer buf.Destroy()
//
//	err := buf.View(func(plaintext []byte) error {
//	    value, err = decode(plaintext) // must copy
//	    return err
//	})
//
// # Platform Behavior
//
// Memory locking behavior varies by platform:
//
//   - Linux: Requires RLIMIT_MEMLOCK to be set appropriately
//   - macOS: Works out of the box
//   - Windows: Uses VirtualLock
//
// # Security Guarantees
//
// It does NOT protect against:
//
//   - Attackers with root access to the running process
//   - Copies of the value the Go runtime made before sealing
//   - Hardware-level attacks (cold boot, DMA)
package secure
