package evict

import (
	"sync"

	"github.com/flier/memtier/pkg/arena"
	"github.com/flier/memtier/pkg/memtier/errs"
	"github.com/flier/memtier/pkg/opt"
	"github.com/flier/memtier/pkg/tuple"
)

// lruNode is a node in LRU's intrusive doubly linked list, allocated from
// the caller-supplied recycled arena rather than the Go heap.
type lruNode struct {
	prev, next *lruNode
	entry      tuple.Tuple2[Handle, uint32] // (handle, size)
}

// LRU is the reference EvictionPolicy: an access-ordered structure backed by
// an intrusive doubly linked list with sentinel head/tail nodes (avoiding
// nil checks at the ends), grounded on the skipor/memcached reference
// repo's lru.go pushBack/head/tail shape. head.next is the oldest entry,
// tail.prev is the newest; RecordAccess always unlinks and re-links at the
// tail, so re-insertion ordering is well defined even when two goroutines
// race to touch the same handle.
type LRU struct {
	mu sync.RWMutex

	arena *arena.Recycled
	index map[Handle]*lruNode

	head, tail *lruNode
	threshold  float64
}

var _ Policy = (*LRU)(nil)

// NewLRU creates an LRU policy at the given pressure threshold, a ratio in
// (0,1). Node bookkeeping is allocated from backing, keeping this churn off
// the Go heap the same way payload bytes are kept off it.
func NewLRU(backing *arena.Recycled, threshold float64) (*LRU, error) {
	if threshold <= 0 || threshold >= 1 {
		return nil, errs.Newf(errs.InvalidArgument, nil, "evict.NewLRU: threshold %v out of (0,1)", threshold)
	}

	l := &LRU{
		arena:     backing,
		index:     make(map[Handle]*lruNode),
		threshold: threshold,
	}

	l.head = arena.New(backing, lruNode{})
	l.tail = arena.New(backing, lruNode{})
	l.head.next = l.tail
	l.tail.prev = l.head

	return l, nil
}

// RecordAccess implements Policy.
func (l *LRU) RecordAccess(id Handle, size uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n, ok := l.index[id]; ok {
		l.unlink(n)
		n.entry = tuple.New2(id, size)
		l.pushBack(n)

		return
	}

	n := arena.New(l.arena, lruNode{entry: tuple.New2(id, size)})
	l.index[id] = n
	l.pushBack(n)
}

// RecordRemoval implements Policy.
func (l *LRU) RecordRemoval(id Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.index[id]
	if !ok {
		return
	}

	l.unlink(n)
	delete(l.index, id)
	arena.Free(l.arena, n)
}

// NextVictim implements Policy: the oldest entry, without removing it.
func (l *LRU) NextVictim() opt.Option[Handle] {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.head.next == l.tail {
		return opt.None[Handle]()
	}

	id, _ := l.head.next.entry.Unpack()

	return opt.Some(id)
}

// ShouldEvict implements Policy. Memoryless: a pure function of used/total.
func (l *LRU) ShouldEvict(used, total uint64) bool {
	return total > 0 && float64(used)/float64(total) >= l.threshold
}

// Threshold implements Policy.
func (l *LRU) Threshold() float64 { return l.threshold }

// unlink removes n from the list. n must currently be linked.
func (l *LRU) unlink(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}

// pushBack inserts n immediately before the tail sentinel, marking it as the
// newest entry.
func (l *LRU) pushBack(n *lruNode) {
	n.prev = l.tail.prev
	n.next = l.tail
	l.tail.prev.next = n
	l.tail.prev = n
}
