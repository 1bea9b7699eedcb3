package xunsafe

import (
	"fmt"
	"unsafe"

	"github.com/flier/memtier/pkg/xunsafe/layout"
)

// Addr is a typed raw address, distinct from a pointer in that the garbage
// collector does not trace it: holding an Addr does not keep the pointee
// alive, and arithmetic on it is ordinary integer arithmetic.
//
// The sign bit is reserved: [Slice.Untyped]'s off-arena encoding uses it to
// flag a pointer that lives outside the owning arena, so every Addr-producing
// operation here is careful to leave it clear for in-arena addresses.
type Addr[T any] uintptr

// AddrOf returns the address of a pointer.
func AddrOf[P ~*E, E any](p P) Addr[E] {
	return Addr[E](uintptr(unsafe.Pointer(p)))
}

// EndOf computes the one-past-the-end address of s without materializing an
// intermediate one-past-the-end pointer.
func EndOf[S ~[]E, E any](s S) Addr[E] {
	return AddrOf(unsafe.SliceData(s)).Add(len(s))
}

// AssertValid asserts that this address is a valid pointer and returns it as
// one. The caller is responsible for knowing that the memory is still live.
func (a Addr[T]) AssertValid() *T {
	return (*T)(unsafe.Pointer(uintptr(a)))
}

// Add adds n (scaled by the size of T) to this address.
func (a Addr[T]) Add(n int) Addr[T] {
	return a + Addr[T](n*layout.Size[T]())
}

// ByteAdd adds an unscaled byte offset to this address.
func (a Addr[T]) ByteAdd(n int) Addr[T] {
	return a + Addr[T](n)
}

// Sub returns the distance, in units of T, between a and b.
func (a Addr[T]) Sub(b Addr[T]) int {
	return int(a-b) / layout.Size[T]()
}

// Padding returns the number of bytes between this address and the next one
// aligned to align, which must be a power of two.
func (a Addr[T]) Padding(align int) int {
	return layout.Padding(int(a), align)
}

// RoundUpTo rounds this address up to align, which must be a power of two.
func (a Addr[T]) RoundUpTo(align int) Addr[T] {
	return Addr[T](layout.RoundUp(uintptr(a), uintptr(align)))
}

// SignBit reports whether the top bit of this address is set.
func (a Addr[T]) SignBit() bool {
	return a>>(unsafe.Sizeof(a)*8-1) != 0
}

// ClearSignBit clears the top bit of this address.
func (a Addr[T]) ClearSignBit() Addr[T] {
	return a &^ (1 << (unsafe.Sizeof(a)*8 - 1))
}

// String implements [fmt.Stringer].
func (a Addr[T]) String() string {
	return fmt.Sprintf("%#x", uintptr(a))
}
