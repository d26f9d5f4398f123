package cell

import (
	"errors"
	"reflect"
	"runtime"
	"sync"

	"github.com/systmms/securecell/internal/secure"
)

// Snapshot is a copy of a cell's value plus metadata. Null is true, and
// Value is the zero value, when the cell is unallocated, locked or destroyed.
type Snapshot[T any] struct {
	Value T
	// Size is the in-memory size of T as reported by reflect.
	Size uintptr
	Null bool
}

// Cell owns a single value of type T. The zero Cell is not usable; create
// cells with New, FromValue, FromOwned, FromPointer or NewBytes.
//
// A Cell must not be copied after first use.
type Cell[T any] struct {
	_    noCopy
	core *core[T]
}

// core holds the state of a cell. It is separate from Cell so that a
// runtime cleanup attached to the Cell can still reach it.
type core[T any] struct {
	mu        sync.RWMutex
	primary   *T
	shadow    *T
	sealed    *secure.SealedBuffer
	allocated bool
	locked    bool
	destroyed bool
	id        Identity

	policy   Policy
	strategy strategy[T]
	codec    Codec[T]
	cloneFn  func(T) T
	wipeFn   func(*T)
	size     uintptr
	logger   Logger
	observer Observer
}

// New returns a cell holding the zero value of T.
func New[T any](opts ...Option) *Cell[T] {
	c, _ := TryNew[T](opts...)
	return c
}

// TryNew is New that also reports configuration problems (ErrNoCodec).
// The returned cell is usable either way.
func TryNew[T any](opts ...Option) (*Cell[T], error) {
	return build(new(T), false, opts)
}

// FromValue returns a cell holding a copy of v.
func FromValue[T any](v T, opts ...Option) *Cell[T] {
	c, _ := TryFromValue(v, opts...)
	return c
}

// TryFromValue is FromValue that also reports configuration problems.
func TryFromValue[T any](v T, opts ...Option) (*Cell[T], error) {
	p := new(T)
	*p = v
	return build(p, true, opts)
}

// FromOwned returns a cell that takes over v without copying it through the
// clone function. The caller must not use v, or anything it references,
// afterwards.
func FromOwned[T any](v T, opts ...Option) *Cell[T] {
	p := new(T)
	*p = v
	c, _ := build(p, false, opts)
	return c
}

// FromPointer returns a cell that adopts *p as its primary storage. The
// caller gives up p. A nil p yields an unallocated cell.
func FromPointer[T any](p *T, opts ...Option) *Cell[T] {
	c, _ := TryFromPointer(p, opts...)
	return c
}

// TryFromPointer is FromPointer that reports ErrNilPointer for a nil p.
func TryFromPointer[T any](p *T, opts ...Option) (*Cell[T], error) {
	return build(p, false, opts)
}

func build[T any](primary *T, clone bool, opts []Option) (*Cell[T], error) {
	s := settings{policy: PolicyFlag}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	k := &core[T]{
		policy:   s.policy,
		size:     reflect.TypeFor[T]().Size(),
		logger:   s.logger,
		observer: s.observer,
	}
	if k.logger == nil {
		k.logger = nopLogger{}
	}
	if k.observer == nil {
		k.observer = nopObserver{}
	}
	k.applyHooks(&s)

	var errs []error
	if _, known := policyNames[k.policy]; !known {
		k.logger.Warn("unknown lock policy %d, using %s", int(k.policy), PolicyFlag)
		k.policy = PolicyFlag
	}
	if k.policy == PolicySealed && k.codec == nil {
		k.logger.Warn("sealed policy without codec for %s, falling back to %s", reflect.TypeFor[T](), PolicySwap)
		k.policy = PolicySwap
		errs = append(errs, ErrNoCodec)
	}
	k.strategy = strategyFor[T](k.policy)

	if primary == nil {
		errs = append(errs, ErrNilPointer)
	} else {
		if clone {
			*primary = k.clone(*primary)
		}
		k.establish(primary)
	}

	c := &Cell[T]{core: k}
	runtime.AddCleanup(c, (*core[T]).finalize, k)

	k.observer.CellCreated(k.policy)
	k.logger.Debug("cell %s created (policy=%s, allocated=%t)", k.id, k.policy, k.allocated)
	return c, errors.Join(errs...)
}

func (k *core[T]) applyHooks(s *settings) {
	if s.codec != nil {
		if codec, ok := s.codec.(Codec[T]); ok {
			k.codec = codec
		} else {
			k.logger.Warn("ignoring codec %T for cell of %s", s.codec, reflect.TypeFor[T]())
		}
	}
	if s.clone != nil {
		if fn, ok := s.clone.(func(T) T); ok {
			k.cloneFn = fn
		} else {
			k.logger.Warn("ignoring clone func %T for cell of %s", s.clone, reflect.TypeFor[T]())
		}
	}
	if s.wipe != nil {
		if fn, ok := s.wipe.(func(*T)); ok {
			k.wipeFn = fn
		} else {
			k.logger.Warn("ignoring wipe func %T for cell of %s", s.wipe, reflect.TypeFor[T]())
		}
	}
}

// establish installs p as primary storage with a fresh placeholder shadow
// and a new identity.
func (k *core[T]) establish(p *T) {
	k.primary = p
	if k.shadow == nil {
		k.shadow = new(T)
	}
	k.allocated = true
	k.id = nextIdentity()
}

func (k *core[T]) clone(v T) T {
	if k.cloneFn == nil {
		return v
	}
	return k.cloneFn(v)
}

// release wipes the slot's value and drops the slot.
func (k *core[T]) release(slot **T) {
	p := *slot
	if p == nil {
		return
	}
	if k.wipeFn != nil {
		k.wipeFn(p)
	} else {
		var zero T
		*p = zero
	}
	*slot = nil
}

// Snapshot returns a copy of the value. The copy goes through the clone
// function, so callers cannot reach internal storage through it.
func (c *Cell[T]) Snapshot() Snapshot[T] {
	k := c.core
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.destroyed || k.locked || k.primary == nil {
		return Snapshot[T]{Null: true}
	}
	return Snapshot[T]{
		Value: k.clone(*k.primary),
		Size:  k.size,
	}
}

// Pointer returns the slot that is currently visible: the shadow slot while
// locked, the primary slot while unlocked, nil when the cell is destroyed
// or has no storage.
//
// The pointer is borrowed. It is only valid until the next Lock, Unlock,
// Allocate into an empty cell, Reset or Move on this cell, and the guard is
// not held while the caller uses it. A goroutine that calls Pointer while
// another toggles the lock races on which slot it receives. Under PolicySwap
// writes to the shadow slot while locked become the primary value on Unlock;
// under the other policies they are discarded.
func (c *Cell[T]) Pointer() *T {
	k := c.core
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.destroyed {
		return nil
	}
	if k.locked {
		return k.shadow
	}
	return k.primary
}

// Identity returns the cell's identity. It is available even after Reset.
func (c *Cell[T]) Identity() Identity {
	k := c.core
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.id
}

// Policy returns the lock policy in effect.
func (c *Cell[T]) Policy() Policy {
	return c.core.policy
}

// IsLocked reports whether access is denied. Destroyed cells are locked.
func (c *Cell[T]) IsLocked() bool {
	k := c.core
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.locked
}

// IsEmpty reports whether the cell holds no value: it was never allocated,
// was moved from, or was destroyed. A value displaced by PolicySwap or
// PolicySealed while locked still counts as held.
func (c *Cell[T]) IsEmpty() bool {
	k := c.core
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.destroyed || !k.allocated
}

// IsDestroyed reports whether Reset has run.
func (c *Cell[T]) IsDestroyed() bool {
	k := c.core
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.destroyed
}

// Equal reports whether c and other are the same cell instance, by
// identity. Cells holding equal values are not equal. A cell without an
// identity only equals itself.
func (c *Cell[T]) Equal(other *Cell[T]) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c == other {
		return true
	}
	id := c.Identity()
	return !id.IsZero() && id == other.Identity()
}

// Allocate replaces the value with a copy of v and wipes the old value.
// It is a no-op returning ErrLocked while locked and ErrDestroyed after
// Reset. Allocating into an unallocated cell establishes storage and
// assigns a new identity.
func (c *Cell[T]) Allocate(v T) error {
	k := c.core
	k.mu.Lock()
	established, err := k.allocate(v)
	id := k.id
	k.mu.Unlock()

	if established {
		k.logger.Debug("cell %s allocated", id)
	}
	k.observer.CellTransition(k.policy, OpAllocate, err)
	return err
}

// allocate reports whether it had to establish new storage.
func (k *core[T]) allocate(v T) (bool, error) {
	if k.destroyed {
		return false, ErrDestroyed
	}
	if k.locked {
		return false, ErrLocked
	}

	fresh := k.clone(v)
	if k.primary == nil {
		p := new(T)
		*p = fresh
		k.establish(p)
		return true, nil
	}
	if k.wipeFn != nil {
		k.wipeFn(k.primary)
	}
	*k.primary = fresh
	return false, nil
}

// Lock denies access to the value and moves it according to the policy.
// Locking a locked cell is a no-op. On failure (ErrSeal) the cell is still
// locked and the value is kept in primary behind the flag.
func (c *Cell[T]) Lock() error {
	k := c.core
	k.mu.Lock()
	changed, err := k.lock()
	id := k.id
	k.mu.Unlock()

	k.logTransition(id, "locked", changed, err)
	k.observer.CellTransition(k.policy, OpLock, err)
	return err
}

// lock reports whether the lock flag was flipped.
func (k *core[T]) lock() (bool, error) {
	if k.destroyed {
		return false, ErrDestroyed
	}
	if k.locked {
		return false, nil
	}
	k.locked = true
	return true, k.strategy.lock(k)
}

// Unlock restores access to the value. Unlocking an unlocked cell is a
// no-op. On failure (ErrSeal) the cell stays locked and the sealed value is
// kept. After Reset it returns ErrDestroyed and the cell stays locked.
func (c *Cell[T]) Unlock() error {
	k := c.core
	k.mu.Lock()
	changed, err := k.unlock()
	id := k.id
	k.mu.Unlock()

	k.logTransition(id, "unlocked", changed, err)
	k.observer.CellTransition(k.policy, OpUnlock, err)
	return err
}

// unlock reports whether a transition was attempted.
func (k *core[T]) unlock() (bool, error) {
	if k.destroyed {
		return false, ErrDestroyed
	}
	if !k.locked {
		return false, nil
	}
	if err := k.strategy.unlock(k); err != nil {
		return true, err
	}
	k.locked = false
	return true, nil
}

// logTransition runs without the guard held.
func (k *core[T]) logTransition(id Identity, state string, changed bool, err error) {
	if !changed {
		return
	}
	if err != nil {
		k.logger.Warn("cell %s: %v", id, err)
		return
	}
	k.logger.Debug("cell %s %s (policy=%s)", id, state, k.policy)
}

// Reset wipes and releases all storage and marks the cell destroyed and
// locked for good. It is idempotent and safe to call concurrently; storage
// is released exactly once.
func (c *Cell[T]) Reset() {
	k := c.core
	k.mu.Lock()
	ran := k.reset()
	id := k.id
	k.mu.Unlock()

	if ran {
		k.logger.Debug("cell %s destroyed", id)
		k.observer.CellTransition(k.policy, OpReset, nil)
		k.observer.CellDestroyed(k.policy)
	}
}

// Deallocate is an alias for Reset.
func (c *Cell[T]) Deallocate() {
	c.Reset()
}

// Close calls Reset. It always returns nil and lets cells be used as io.Closer.
func (c *Cell[T]) Close() error {
	c.Reset()
	return nil
}

func (k *core[T]) reset() bool {
	if k.destroyed {
		return false
	}
	k.release(&k.primary)
	k.release(&k.shadow)
	if k.sealed != nil {
		k.sealed.Destroy()
		k.sealed = nil
	}
	k.allocated = false
	k.destroyed = true
	k.locked = true
	return true
}

// finalize runs when a Cell becomes unreachable without Reset.
func (k *core[T]) finalize() {
	k.mu.Lock()
	ran := k.reset()
	id := k.id
	k.mu.Unlock()

	if ran {
		k.logger.Debug("cell %s destroyed by cleanup", id)
		k.observer.CellDestroyed(k.policy)
	}
}

// Move transfers the value, flags and identity into a new cell and leaves
// c unallocated: empty, unlocked and without identity. Moving a destroyed
// cell returns a destroyed cell and leaves c destroyed.
func (c *Cell[T]) Move() *Cell[T] {
	src := c.core
	src.mu.Lock()

	dst := &core[T]{
		primary:   src.primary,
		shadow:    src.shadow,
		sealed:    src.sealed,
		allocated: src.allocated,
		locked:    src.locked,
		destroyed: src.destroyed,
		id:        src.id,
		policy:    src.policy,
		strategy:  src.strategy,
		codec:     src.codec,
		cloneFn:   src.cloneFn,
		wipeFn:    src.wipeFn,
		size:      src.size,
		logger:    src.logger,
		observer:  src.observer,
	}
	if !src.destroyed {
		src.primary = nil
		src.shadow = nil
		src.sealed = nil
		src.allocated = false
		src.locked = false
		src.id = 0
	}
	src.mu.Unlock()

	moved := &Cell[T]{core: dst}
	runtime.AddCleanup(moved, (*core[T]).finalize, dst)
	if !dst.destroyed {
		dst.observer.CellCreated(dst.policy)
	}
	dst.logger.Debug("cell %s moved", dst.id)
	return moved
}

// noCopy lets go vet's copylocks check flag copies of Cell.
type noCopy struct{}

func (*noCopy) Lock() {}
func (*noCopy) Unlock() {}
