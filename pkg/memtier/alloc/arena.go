package alloc

import (
	"sync/atomic"

	"github.com/flier/memtier/internal/debug"
	"github.com/flier/memtier/pkg/memtier/errs"
	"github.com/flier/memtier/pkg/zc"
)

// align is the required alignment for every allocation (I6): all arena
// regions are 8-byte aligned.
const align = 8

// Arena is a bounded off-heap allocator: one fixed-capacity []byte slab
// subdivided by bump allocation.
//
// The reference behavior is bump-only, matching the source design: Free only
// decrements Used without reclaiming the hole. Fragmentation is mitigated one
// layer up, by Store's eviction pressure and the fact that entries are
// typically short-lived; a segregated free-list or buddy allocator is a
// legitimate drop-in replacement that changes no external contract.
//
// Unlike github.com/flier/goutil's pkg/arena.Arena, which stays GC-traced
// for its metadata path, Arena's backing store is a single plain []byte:
// payload bytes inside it are never individually GC-visible pointers, only
// the slice header is a GC root, which is what makes this allocator's
// contents opaque to the collector the way an off-heap region needs to be.
type Arena struct {
	buf []byte
	cap int64

	next   atomic.Int64 // monotonic bump cursor; gates admission, never shrinks
	used   atomic.Int64 // live bytes; shrinks on Free (I5 follows from gating on next)
	closed atomic.Bool
}

var _ Allocator = (*Arena)(nil)

// NewArena creates an Arena with the given fixed byte capacity.
func NewArena(capacity uint64) *Arena {
	debug.Assert(capacity > 0, "alloc: arena capacity must be positive")

	return &Arena{buf: make([]byte, capacity), cap: int64(capacity)}
}

func alignUp(n uint32) uint32 {
	return (n + align - 1) &^ (align - 1)
}

// Allocate implements Allocator.
func (a *Arena) Allocate(size uint32) (MemoryPointer, error) {
	debug.Assert(size > 0, "alloc.Arena.Allocate: size must be positive")

	if a.closed.Load() {
		return MemoryPointer{}, errs.New(errs.Closed, "alloc.Arena.Allocate", nil)
	}

	aligned := int64(alignUp(size))

	for {
		cur := a.next.Load()
		next := cur + aligned
		if next > a.cap {
			return MemoryPointer{}, errOutOfCapacity("alloc.Arena.Allocate")
		}

		if a.next.CompareAndSwap(cur, next) {
			a.used.Add(int64(size))
			debug.Log(nil, "alloc", "[%d:%d) (%d requested, %d aligned)", cur, next, size, aligned)

			return InMemoryPointer(zc.Raw(int(cur), int(size)), size), nil
		}
	}
}

// Write implements Allocator.
func (a *Arena) Write(ptr MemoryPointer, data []byte) error {
	if ptr.Tier != InMemory {
		return errInvalidHandle("alloc.Arena.Write")
	}
	if uint32(len(data)) > ptr.Size() {
		return errInvalidHandle("alloc.Arena.Write")
	}

	start := ptr.View().Start()
	copy(a.buf[start:start+len(data)], data)

	return nil
}

// Read implements Allocator.
func (a *Arena) Read(ptr MemoryPointer) ([]byte, error) {
	if ptr.Tier != InMemory {
		return nil, errInvalidHandle("alloc.Arena.Read")
	}

	out := make([]byte, ptr.Size())
	start := ptr.View().Start()
	copy(out, a.buf[start:start+int(ptr.Size())])

	return out, nil
}

// Free implements Allocator. Double-freeing ptr is a caller error with
// undefined effect, as the capability contract allows.
func (a *Arena) Free(ptr MemoryPointer) {
	a.used.Add(-int64(ptr.Size()))
}

// Capacity implements Allocator.
func (a *Arena) Capacity() uint64 { return uint64(a.cap) }

// Used implements Allocator.
func (a *Arena) Used() uint64 { return uint64(a.used.Load()) }

// Close implements Allocator. The slab is released for GC; operations after
// Close have undefined effect.
func (a *Arena) Close() error {
	a.closed.Store(true)
	a.buf = nil

	return nil
}
