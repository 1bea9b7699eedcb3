// Package evict provides the pluggable eviction-policy capability memtier.Store
// consults on every insertion and cleanup tick, plus an LRU reference
// implementation.
package evict

import "github.com/flier/memtier/pkg/opt"

// Handle is a type alias (not a distinct type) for the opaque 64-bit token
// memtier.Handle also aliases, so policy implementations need no import of
// pkg/memtier — which in turn depends on this package — to speak the same
// vocabulary.
type Handle = uint64

// Policy is the capability that chooses eviction victims and signals memory
// pressure. Implementations serialize internally: they are invoked from both
// user-facing operations and background cleanup, with no external lock held
// by the caller across a Policy call.
type Policy interface {
	// RecordAccess upserts id into the access-order structure as "most
	// recent", updating its known size.
	RecordAccess(id Handle, size uint32)

	// RecordRemoval forgets id.
	RecordRemoval(id Handle)

	// NextVictim peeks at (without removing) the next entry to evict.
	// Returns opt.None if the policy holds no entries.
	NextVictim() opt.Option[Handle]

	// ShouldEvict reports whether used/total has crossed Threshold.
	ShouldEvict(used, total uint64) bool

	// Threshold returns the configured pressure ratio, in (0,1).
	Threshold() float64
}
