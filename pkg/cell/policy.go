package cell

import (
	"fmt"
	"strings"

	"github.com/systmms/securecell/internal/secure"
)

// Policy selects how a cell stores its value while locked.
type Policy int

const (
	// PolicyFlag only flips the lock flag. The value stays in primary.
	PolicyFlag Policy = iota
	// PolicySwap moves the value into fresh shadow storage and releases
	// primary. Unlock moves it back into fresh primary storage.
	PolicySwap
	// PolicySealed encodes the value into an encrypted enclave and
	// releases primary. Requires a Codec.
	PolicySealed
)

var policyNames = map[Policy]string{
	PolicyFlag:   "flag",
	PolicySwap:   "swap",
	PolicySealed: "sealed",
}

var policyDescriptions = map[Policy]string{
	PolicyFlag:   "Lock gates access with a flag; value stays in place",
	PolicySwap:   "Lock moves the value to shadow storage and releases primary",
	PolicySealed: "Lock seals the encoded value in an encrypted memguard enclave",
}

// Policies returns every policy in declaration order.
func Policies() []Policy {
	return []Policy{PolicyFlag, PolicySwap, PolicySealed}
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Description returns a one-line summary for listings.
func (p Policy) Description() string {
	return policyDescriptions[p]
}

// ParsePolicy accepts the names returned by Policy.String, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return PolicyFlag, fmt.Errorf("unknown lock policy %q (want flag, swap or sealed)", s)
}

// strategy moves storage between slots on lock transitions. It is called
// with the cell's write lock held, after the flag checks.
type strategy[T any] interface {
	lock(k *core[T]) error
	unlock(k *core[T]) error
}

func strategyFor[T any](p Policy) strategy[T] {
	switch p {
	case PolicySwap:
		return swapStrategy[T]{}
	case PolicySealed:
		return sealedStrategy[T]{}
	default:
		return flagStrategy[T]{}
	}
}

type flagStrategy[T any] struct{}

func (flagStrategy[T]) lock(*core[T]) error { return nil }
func (flagStrategy[T]) unlock(*core[T]) error { return nil }

type swapStrategy[T any] struct{}

func (swapStrategy[T]) lock(k *core[T]) error {
	if k.primary == nil {
		return nil
	}
	displaced := new(T)
	*displaced = k.clone(*k.primary)
	k.release(&k.shadow)
	k.shadow = displaced
	k.release(&k.primary)
	return nil
}

func (swapStrategy[T]) unlock(k *core[T]) error {
	if k.shadow == nil {
		return nil
	}
	restored := new(T)
	*restored = k.clone(*k.shadow)
	k.release(&k.primary)
	k.primary = restored
	k.release(&k.shadow)
	return nil
}

type sealedStrategy[T any] struct{}

func (sealedStrategy[T]) lock(k *core[T]) error {
	if k.primary == nil {
		return nil
	}
	encoded, err := k.codec.Encode(*k.primary)
	if err != nil {
		// primary stays in place; the flag alone keeps it unreachable
		return fmt.Errorf("%w: encode: %v", ErrSeal, err)
	}
	k.sealed = secure.Seal(encoded)
	k.release(&k.primary)
	if k.shadow == nil {
		k.shadow = new(T)
	}
	return nil
}

func (sealedStrategy[T]) unlock(k *core[T]) error {
	if k.sealed == nil {
		return nil
	}
	var restored T
	err := k.sealed.View(func(plaintext []byte) error {
		v, err := k.codec.Decode(plaintext)
		if err != nil {
			return err
		}
		restored = v
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: decode: %v", ErrSeal, err)
	}
	k.sealed.Destroy()
	k.sealed = nil
	k.primary = &restored
	return nil
}
