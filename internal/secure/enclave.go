package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by View after Destroy.
var ErrDestroyed = errors.New("sealed buffer destroyed")

// SealedBuffer holds bytes encrypted at rest in a memguard enclave.
//
// memguard.Enclave has no Destroy method. Destroy drops the enclave so the
// ciphertext can be collected; memguard.Purge at exit wipes the session key.
type SealedBuffer struct {
	enclave *memguard.Enclave
	size    int
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy calls and blocks View afterwards
	destroyed bool
}

// Seal moves data into a new enclave. memguard wipes data in the process,
// so the caller's slice is zero when Seal returns.
//
// An empty payload is valid and yields a buffer without an enclave.
func Seal(data []byte) *SealedBuffer {
	size := len(data)
	if size == 0 {
		return &SealedBuffer{}
	}

	// NewEnclave encrypts with XSalsa20Poly1305 under the session key
	return &SealedBuffer{
		enclave: memguard.NewEnclave(data),
		size:    size,
	}
}

// View decrypts the payload into a guarded buffer, passes its bytes to fn
// and destroys the buffer when fn returns. fn must not retain the slice.
func (s *SealedBuffer) View(fn func(plaintext []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return ErrDestroyed
	}
	if s.enclave == nil {
		return fn(nil)
	}

	locked, err := s.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.Bytes())
}

// Size returns the plaintext length.
func (s *SealedBuffer) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Destroy drops the enclave. It is idempotent; View fails afterwards.
func (s *SealedBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.enclave = nil
	s.size = 0
	s.destroyed = true
}

// WipeBytes overwrites b with zeros using memguard's wiping routine.
func WipeBytes(b []byte) {
	memguard.WipeBytes(b)
}
