// Package alloc provides the off-heap allocator backends memtier.Store sits
// on top of: a bounded Arena, and a Hybrid allocator that overflows to a
// backing file once the arena crosses a configurable threshold.
package alloc

import "github.com/flier/memtier/pkg/memtier/errs"

// Allocator is the capability a memtier.Store is built on: allocate, write,
// read, and free a contiguous byte region, plus cheap capacity/used reads.
//
// Implementations serialize their own mutating operations internally; callers
// do not need to hold an external lock around Allocate/Write/Read/Free.
type Allocator interface {
	// Allocate reserves size bytes and returns a pointer to them. size must
	// be > 0. Fails with a Kind-OutOfCapacity *errs.StoreError if admitting
	// the allocation would break the allocator's capacity invariant.
	Allocate(size uint32) (MemoryPointer, error)

	// Write copies data into the region addressed by ptr. len(data) must be
	// <= ptr.Size(); bytes beyond len(data) are left unspecified but
	// addressable. Fails with Kind-InvalidHandle if ptr is foreign to this
	// allocator.
	Write(ptr MemoryPointer, data []byte) error

	// Read returns a freshly allocated copy of the ptr.Size() bytes most
	// recently written to ptr. If Write was never called for ptr, the
	// contents are unspecified but the call does not fail.
	Read(ptr MemoryPointer) ([]byte, error)

	// Free returns ptr's region for reuse and decrements Used() by
	// ptr.Size(). Double-freeing a pointer is a caller error with undefined
	// effect, not a reported failure.
	Free(ptr MemoryPointer)

	// Capacity returns the allocator's total byte capacity. For Hybrid this
	// is the arena's capacity only; the file tier is unbounded for
	// admission purposes.
	Capacity() uint64

	// Used returns the allocator's currently live byte count. For Hybrid
	// this is memory-tier plus file-tier usage combined.
	Used() uint64

	// Close releases all backing regions. Operations after Close have
	// undefined effect.
	Close() error
}

// errOutOfCapacity builds a Kind-OutOfCapacity error for op.
func errOutOfCapacity(op string) error {
	return errs.New(errs.OutOfCapacity, op, nil)
}

// errInvalidHandle builds a Kind-InvalidHandle error for op.
func errInvalidHandle(op string) error {
	return errs.New(errs.InvalidHandle, op, nil)
}
