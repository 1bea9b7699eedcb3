package xunsafe

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/flier/memtier/internal/xsync"
)

var isDirectMap xsync.Map[reflect.Type, bool]

// iface is the internal representation of a Go interface value.
type iface struct {
	itab uintptr
	data *byte
}

// AnyData extracts the pointer value from an any.
func AnyData(v any) *byte {
	return Cast[iface](NoEscape(&v)).data
}

// AnyType extracts the opaque type word from an any.
func AnyType(v any) uintptr {
	return Cast[iface](NoEscape(&v)).itab
}

// AnyBytes extracts a slice over the variable-length data of an any.
func AnyBytes(v any) []byte {
	if v == nil {
		return nil
	}

	p := AnyData(v)
	if !IsDirectAny(v) {
		return unsafe.Slice(p, reflect.TypeOf(v).Size())
	}

	p2 := p // Work around https://github.com/golang/go/issues/74364
	return Bytes(&p2)
}

// MakeAny builds an any out of the given type word and data pointer.
func MakeAny(typ uintptr, data *byte) any {
	raw := iface{typ, data}
	return BitCast[any](raw)
}

// IsDirectAny returns whether v is a direct interface, i.e. whether its data
// word holds the value itself rather than a pointer to a heap copy.
//
// This is much slower than [IsDirect], since the trick used there would
// force a heap allocation here in the general case.
func IsDirectAny(v any) bool {
	t := reflect.TypeOf(v)
again:
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Func,
		reflect.Map, reflect.Chan:
		return true

	case reflect.Array:
		if t.Len() != 1 {
			return false
		}
		t = t.Elem()
		goto again

	case reflect.Struct:
		if t.NumField() == 1 {
			t = t.Field(0).Type
			goto again
		}

		direct, _ := isDirectMap.LoadOrStore(t, func() bool {
			z := reflect.Zero(t).Interface()
			p := AnyData(z)
			return p == nil
		})
		return direct

	default:
		return false
	}
}

// IsDirect returns whether converting T to an interface avoids an
// allocation, i.e. whether T is one of the inlined primitives (pointers,
// interfaces, channels, maps) or a one-field struct/array whose sole element
// is itself inlined.
func IsDirect[T any]() bool {
	var x T
	p := AnyData(any(x))

	// x's bit pattern is all zero regardless of T. If T is direct, the data
	// word is x itself, so AnyData extracts nil; otherwise it is a non-nil
	// pointer to a copy of x (a static zero value, a heap copy, and so on).
	return p == nil
}

// AssertInlinedAny fails t unless T converts to an interface without an
// allocation.
func AssertInlinedAny[T any](t testing.TB) {
	t.Helper()

	var z T

	assert.True(t, IsDirect[T](), "expected %T to be pointer-shaped", z)
}
