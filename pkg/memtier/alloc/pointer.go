package alloc

import (
	"fmt"

	"github.com/flier/memtier/pkg/zc"
)

// Tier names which storage tier a MemoryPointer's address is local to.
type Tier uint8

const (
	// InMemory addresses a region of the off-heap arena.
	InMemory Tier = iota
	// OnFile addresses a byte offset into the hybrid allocator's backing file.
	OnFile
)

func (t Tier) String() string {
	switch t {
	case InMemory:
		return "in-memory"
	case OnFile:
		return "on-file"
	default:
		return "unknown"
	}
}

// MemoryPointer is a (tier, address, size) triple describing where an entry
// physically lives. It never leaves the allocator/store boundary.
//
// The tier is explicit rather than erased into a generic field: InMemory
// equality compares the packed arena address, OnFile equality compares the
// file offset, and there is no runtime type test to get wrong. The struct is
// plain and comparable, so it can be used as a map key directly. The hybrid
// allocator keeps no tier map; it dispatches on the Tier field.
type MemoryPointer struct {
	Tier    Tier
	inMem   zc.View // valid iff Tier == InMemory
	fileOff int64   // valid iff Tier == OnFile
	size    uint32
}

// InMemoryPointer builds a MemoryPointer addressing the arena.
func InMemoryPointer(addr zc.View, size uint32) MemoryPointer {
	return MemoryPointer{Tier: InMemory, inMem: addr, size: size}
}

// OnFilePointer builds a MemoryPointer addressing the backing file.
func OnFilePointer(offset int64, size uint32) MemoryPointer {
	return MemoryPointer{Tier: OnFile, fileOff: offset, size: size}
}

// Size returns the exact byte length allocated for this pointer.
func (p MemoryPointer) Size() uint32 { return p.size }

// View returns the packed arena address. Only meaningful when Tier == InMemory.
func (p MemoryPointer) View() zc.View { return p.inMem }

// FileOffset returns the backing-file byte offset. Only meaningful when
// Tier == OnFile.
func (p MemoryPointer) FileOffset() int64 { return p.fileOff }

func (p MemoryPointer) String() string {
	switch p.Tier {
	case InMemory:
		return fmt.Sprintf("%v@%v", p.Tier, p.inMem)
	default:
		return fmt.Sprintf("%v@%d:%d", p.Tier, p.fileOff, p.size)
	}
}
