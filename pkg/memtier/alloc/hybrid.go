package alloc

import (
	"sync/atomic"

	"github.com/flier/memtier/internal/debug"
	"github.com/flier/memtier/pkg/either"
	"github.com/flier/memtier/pkg/memtier/errs"
)

// Hybrid wraps a bounded Arena and an unbounded file-backed overflow tier.
// Allocations spill to the file once the arena's fill ratio crosses
// MemoryThreshold, per the admission rule in 4.2.2.
type Hybrid struct {
	arena     *Arena
	file      *fileTier
	threshold float64 // memory_threshold: arena fill ratio above which new allocations spill to file
	closed    atomic.Bool
}

var _ Allocator = (*Hybrid)(nil)

// NewHybrid creates a Hybrid allocator with the given arena capacity and
// memory threshold (a ratio in (0,1)).
func NewHybrid(capacity uint64, threshold float64) (*Hybrid, error) {
	if threshold <= 0 || threshold >= 1 {
		return nil, errs.Newf(errs.InvalidArgument, nil, "alloc.NewHybrid: memory threshold %v out of (0,1)", threshold)
	}

	ft, err := newFileTier()
	if err != nil {
		return nil, err
	}

	return &Hybrid{arena: NewArena(capacity), file: ft, threshold: threshold}, nil
}

// tryArena is the value of Hybrid's admission decision (4.2.2 steps 1-2):
// Left means "the arena accepts this allocation under the threshold rule",
// Right means "route straight to the file tier". Modeling this as a value
// rather than an if/else keeps the two-armed decision and its fallback
// (an arena attempt that loses a race still falls through to the file tier)
// from turning into duplicated bookkeeping at each call site.
func (h *Hybrid) tryArena(size uint32) either.Either[struct{}, struct{}] {
	used := h.arena.Used()
	cap := h.arena.Capacity()

	fits := cap > 0 &&
		float64(used)/float64(cap) < h.threshold &&
		used+uint64(size) <= cap

	if fits {
		return either.Left[struct{}, struct{}](struct{}{})
	}

	return either.Right[struct{}, struct{}](struct{}{})
}

// Allocate implements Allocator.
func (h *Hybrid) Allocate(size uint32) (MemoryPointer, error) {
	debug.Assert(size > 0, "alloc.Hybrid.Allocate: size must be positive")

	if h.closed.Load() {
		return MemoryPointer{}, errs.New(errs.Closed, "alloc.Hybrid.Allocate", nil)
	}

	if h.tryArena(size).HasLeft() {
		if ptr, err := h.arena.Allocate(size); err == nil {
			return ptr, nil
		}
		// Lost a race against another allocation between the threshold
		// check and the attempt; fall through to the file tier below.
	}

	off, err := h.file.reserve(size)
	if err != nil {
		return MemoryPointer{}, errOutOfCapacity("alloc.Hybrid.Allocate")
	}

	debug.Log(nil, "alloc", "spilled %d bytes to file at %d", size, off)

	return OnFilePointer(off, size), nil
}

// Write implements Allocator, dispatching on ptr.Tier.
func (h *Hybrid) Write(ptr MemoryPointer, data []byte) error {
	switch ptr.Tier {
	case InMemory:
		return h.arena.Write(ptr, data)
	case OnFile:
		if uint32(len(data)) > ptr.Size() {
			return errInvalidHandle("alloc.Hybrid.Write")
		}
		return h.file.writeAt(ptr.FileOffset(), data)
	default:
		return errInvalidHandle("alloc.Hybrid.Write")
	}
}

// Read implements Allocator, dispatching on ptr.Tier.
func (h *Hybrid) Read(ptr MemoryPointer) ([]byte, error) {
	switch ptr.Tier {
	case InMemory:
		return h.arena.Read(ptr)
	case OnFile:
		return h.file.readAt(ptr.FileOffset(), ptr.Size())
	default:
		return nil, errInvalidHandle("alloc.Hybrid.Read")
	}
}

// Free implements Allocator, dispatching on ptr.Tier.
func (h *Hybrid) Free(ptr MemoryPointer) {
	switch ptr.Tier {
	case InMemory:
		h.arena.Free(ptr)
	case OnFile:
		h.file.free(ptr.Size())
	}
}

// Capacity implements Allocator. Only the arena's capacity counts: the file
// tier is semantically unbounded for admission purposes.
func (h *Hybrid) Capacity() uint64 { return h.arena.Capacity() }

// Used implements Allocator: memory-tier plus file-tier usage combined.
//
// This sum is not directly comparable to Capacity, which counts the arena
// only. Store's admission and eviction-pressure math use this combined
// figure against the arena-only Capacity, so file-tier bytes count toward
// eviction pressure: Put and Tick evict entries until the combined usage is
// back under the eviction threshold's share of the arena capacity. The
// arena's own usage alone is not consulted by Store.
func (h *Hybrid) Used() uint64 { return h.arena.Used() + h.file.Used() }

// Close implements Allocator.
func (h *Hybrid) Close() error {
	h.closed.Store(true)

	aerr := h.arena.Close()
	ferr := h.file.Close()

	if aerr != nil {
		return aerr
	}

	return ferr
}
