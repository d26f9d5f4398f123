// Package cell provides a lockable single-value container for sensitive data.
//
// A Cell owns exactly one value of type T. While unlocked the value can be
// read (as a copy) and replaced. While locked every read returns an empty
// snapshot and the externally visible slot is switched to a shadow slot, so
// code that forgets to check the lock state never sees the real value.
// Reset destroys the cell permanently.
//
// # Lock Policies
//
// How the real value is stored while locked is chosen per cell:
//
//   - PolicyFlag: the value stays in place and only the lock flag gates
//     access. The shadow slot holds a zero placeholder. This is the default.
//   - PolicySwap: the value is copied into the shadow slot and the primary
//     slot is wiped and released. Unlock copies it back into fresh storage.
//   - PolicySealed: the value is encoded with the cell's Codec and sealed
//     into an encrypted memguard enclave. The primary slot is wiped and
//     released and the shadow slot holds a zero placeholder.
//
// # Usage
//
//	c := cell.FromValue(apiKey, cell.WithPolicy(cell.PolicySwap))
//	defer c.Reset()
//
//	if snap := c.Snapshot(); !snap.Null {
//	    use(snap.Value)
//	}
//
//	_ = c.Lock()   // Snapshot now returns Null
//	_ = c.Unlock() // value restored
//
// Byte secrets should use NewBytes, which installs a deep copy for
// snapshots and memguard wiping on release:
//
//	c := cell.NewBytes([]byte("hunter2"), cell.WithPolicy(cell.PolicySealed))
//
// # Value Types
//
// T is meant to be a value type. Snapshot copies T with a plain assignment
// unless a clone function is installed with WithClone, so a T holding
// slices, maps or pointers shares its backing storage with every snapshot.
// Install WithClone (and WithWipe) for such types.
//
// # Errors
//
// Every mutator returns an error (ErrLocked, ErrDestroyed, ErrSeal) and the
// cell never panics. A call rejected with ErrLocked or ErrDestroyed leaves
// the cell unchanged. ErrSeal is different: a Lock that fails to encode
// still locks the cell, keeping the value in primary behind the flag, and an
// Unlock that fails to decode leaves it locked. Callers that ignore the
// errors get best-effort behaviour and can check IsLocked, IsEmpty or
// Snapshot().Null instead.
//
// Loggers and observers are called after the guard is released, so they
// may call back into the cell.
//
// # Concurrency
//
// All methods are safe for concurrent use. One sync.RWMutex per cell guards
// every slot and flag. The guard is released before a method returns; in
// particular a pointer returned by Pointer is not protected after the call.
package cell
