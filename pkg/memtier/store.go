package memtier

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/flier/memtier/internal/debug"
	"github.com/flier/memtier/pkg/arena"
	"github.com/flier/memtier/pkg/arena/swiss"
	"github.com/flier/memtier/pkg/memtier/alloc"
	"github.com/flier/memtier/pkg/memtier/errs"
	"github.com/flier/memtier/pkg/memtier/evict"
	"github.com/flier/memtier/pkg/res"
	"github.com/flier/memtier/pkg/xerrors"
)

// initialRegistrySize is the entry count the swiss.Map is first sized for; beyond this,
// Put's admission loop relies on the map's own rehash/nextSize growth rather
// than any pre-sizing here.
const initialRegistrySize = 16

// state values for Store.state. A Store only ever moves forward: Open ->
// Closing -> Closed, never back.
const (
	stateOpen int32 = iota
	stateClosing
	stateClosed
)

// Store is the cache façade: put/get/remove a byte payload by Handle, backed
// by a pluggable Allocator and EvictionPolicy.
//
// mu is a single readers-writer lock serving two roles at once: the
// "registry lock" (get takes it shared; put/remove/evict_one/tick take it
// exclusive) and the "admission lock" (put holds it, exclusively, across
// eviction, allocation, write, and registry insertion — the single biggest
// critical section, and intentional: admission decisions must see a
// consistent used/capacity snapshot). Collapsing the two into one lock is a
// simplification over a two-lock design; nothing in the component's
// contract needs get to run concurrently with put.
type Store struct {
	mu sync.RWMutex

	allocator alloc.Allocator
	policy    evict.Policy
	meta      *arena.Recycled
	registry  *swiss.Map[Handle, MemoryPointer]

	nextID atomic.Uint64
	state  atomic.Int32

	closeOnce sync.Once
	closeErr  error
}

// New builds a Store from cfg, constructing a default Arena allocator (or
// Hybrid, per AllocatorKind) and a default LRU policy for whichever of
// Allocator/Policy the caller left nil.
func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	allocator := cfg.Allocator
	if allocator == nil {
		switch cfg.AllocatorKind {
		case ArenaAllocator:
			allocator = alloc.NewArena(cfg.MemoryCapacity)
		case HybridAllocator:
			h, err := alloc.NewHybrid(cfg.MemoryCapacity, cfg.MemoryThreshold)
			if err != nil {
				return nil, err
			}
			allocator = h
		default:
			return nil, debug.Unsupported()
		}
	}

	meta := new(arena.Recycled)

	policy := cfg.Policy
	if policy == nil {
		lru, err := evict.NewLRU(meta, cfg.EvictionThreshold)
		if err != nil {
			return nil, err
		}
		policy = lru
	}

	s := &Store{
		allocator: allocator,
		policy:    policy,
		meta:      meta,
		registry:  swiss.NewMap[Handle, MemoryPointer](&meta.Arena, initialRegistrySize),
	}
	s.state.Store(stateOpen)

	return s, nil
}

// Put admits data, evicting entries under pressure as needed, and returns
// the handle it was stored under. Fails with Kind-OutOfCapacity if data is
// larger than the allocator's total capacity, or if admission still can't
// make room after evicting everything evictable. Fails with Kind-Closed
// once the store is closing or closed.
//
// An empty payload is rejected with Kind-InvalidArgument: the spec leaves
// this an implementer's choice, and a zero-length entry has no payload to
// ever meaningfully Get back, so reserving a handle for it would only be
// surprising.
func (s *Store) Put(data []byte) (Handle, error) {
	if len(data) == 0 {
		return 0, errs.New(errs.InvalidArgument, "memtier.Store.Put", nil)
	}

	need := uint32(len(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Load() != stateOpen {
		return 0, errs.New(errs.Closed, "memtier.Store.Put", nil)
	}

	capacity := s.allocator.Capacity()
	if uint64(need) > capacity {
		return 0, errs.New(errs.OutOfCapacity, "memtier.Store.Put", nil)
	}

	// Preemptive eviction: make room before attempting the allocation, so a
	// policy that can still free enough never has to fall back on the
	// allocate-then-retry path below.
	for float64(s.allocator.Used())+float64(need) > float64(capacity)*s.policy.Threshold() {
		if !s.evictOneLocked() {
			break
		}
	}

	attempt := res.Wrap(s.allocator.Allocate(need))
	if attempt.IsErr() && errors.Is(attempt.UnwrapErr(), errs.ErrOutOfCapacity) && s.evictOneLocked() {
		// One retry after making room, per the admission algorithm: a single
		// eviction can free exactly enough for the one allocation that just
		// failed, so more than one retry would only mask a policy that isn't
		// making progress.
		attempt = res.Wrap(s.allocator.Allocate(need))
	}
	if attempt.IsErr() {
		return 0, attempt.UnwrapErr()
	}

	ptr := attempt.Unwrap()

	if err := s.allocator.Write(ptr, data); err != nil {
		s.allocator.Free(ptr) // strong exception safety: undo the allocation
		return 0, err
	}

	id := s.nextID.Add(1)

	s.registry.Put(id, ptr)
	s.policy.RecordAccess(id, need)

	debug.Log(nil, "store", "put handle=%d size=%d tier=%v", id, need, ptr.Tier)

	return id, nil
}

// Get returns the bytes stored under id, or (nil, false) if id names
// nothing live. A successful Get counts as an access for eviction purposes.
func (s *Store) Get(id Handle) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.Load() == stateClosed {
		return nil, false
	}

	ptr, ok := s.registry.Get(id)
	if !ok {
		return nil, false
	}

	data, err := s.allocator.Read(ptr)
	if err != nil {
		if se, ok := xerrors.AsA[*errs.StoreError](err); ok {
			debug.Log(nil, "store", "get handle=%d failed: %s", id, se.Kind)
		}

		return nil, false
	}

	// Recorded while still holding the registry lock: if this ran after
	// releasing it, a Remove racing in between would make this resurrect a
	// policy entry for a handle that no longer exists in the registry.
	s.policy.RecordAccess(id, ptr.Size())

	return data, true
}

// Remove drops id, freeing its storage. Removing an absent or already-
// removed handle is a no-op, not an error.
func (s *Store) Remove(id Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Load() == stateClosed {
		return
	}

	ptr, ok := s.registry.Get(id)
	if !ok {
		return
	}

	s.registry.Delete(id)
	s.allocator.Free(ptr)
	s.policy.RecordRemoval(id)
}

// Tick runs one cleanup pass: evicts entries while the policy reports
// pressure, up to one per currently-registered handle (a safe upper bound,
// since each pass removes at most one entry, guaranteeing termination even
// under a pathological policy).
func (s *Store) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Load() == stateClosed {
		return
	}

	capacity := s.allocator.Capacity()
	bound := s.registry.Count()

	for i := 0; i < bound; i++ {
		if !s.policy.ShouldEvict(s.allocator.Used(), capacity) {
			return
		}
		if !s.evictOneLocked() {
			return
		}
	}
}

// evictOneLocked implements evict_one: peek the policy's next victim, and
// if it's still registered, free and forget it; if it names a handle the
// registry has already dropped (a ghost, e.g. from a Remove that raced
// ahead of the policy), just purge the dangling policy entry instead.
// Reports whether it made any progress at all, so callers can stop looping
// once the policy runs dry.
//
// Caller must hold s.mu exclusively.
func (s *Store) evictOneLocked() bool {
	next := s.policy.NextVictim()
	if next.IsNone() {
		return false
	}

	victim := next.Unwrap()

	if ptr, ok := s.registry.Get(victim); ok {
		s.registry.Delete(victim)
		s.allocator.Free(ptr)
	}

	s.policy.RecordRemoval(victim)

	return true
}

// Capacity returns the allocator's total byte capacity.
func (s *Store) Capacity() uint64 { return s.allocator.Capacity() }

// Used returns the allocator's currently live byte count.
func (s *Store) Used() uint64 { return s.allocator.Used() }

// Close transitions the store through Closing (new Put calls start failing
// with Kind-Closed; in-flight operations drain naturally since they all
// hold mu) to Closed (the allocator is released). Safe to call more than
// once; later calls return the first call's result.
func (s *Store) Close() error {
	s.state.Store(stateClosing)

	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.closeErr = s.allocator.Close()
		s.state.Store(stateClosed)
	})

	return s.closeErr
}
