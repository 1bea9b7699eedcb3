// Package errs holds the error vocabulary shared by the allocator, eviction,
// and store layers of memtier.
//
// It exists as its own package, rather than living alongside Store, so that
// pkg/memtier/alloc and pkg/memtier/evict can both raise and classify these
// errors without importing the top-level pkg/memtier package that in turn
// depends on them.
package errs

import "fmt"

// Kind classifies a StoreError, mirroring the error kinds a caller needs to
// branch on rather than a taxonomy of Go types.
type Kind uint8

const (
	// OutOfCapacity means put could not admit a payload even after
	// exhausting evictable entries.
	OutOfCapacity Kind = iota
	// InvalidHandle means an operation referenced a pointer or handle
	// foreign to the allocator/store it was issued against.
	InvalidHandle
	// InvalidArgument means a constructor received an out-of-range
	// configuration value (e.g. a threshold outside (0,1)).
	InvalidArgument
	// IoError means a file-tier read or write failed.
	IoError
	// Closed means an operation was attempted on a closed store.
	Closed
)

func (k Kind) String() string {
	switch k {
	case OutOfCapacity:
		return "out of capacity"
	case InvalidHandle:
		return "invalid handle"
	case InvalidArgument:
		return "invalid argument"
	case IoError:
		return "io error"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// StoreError is the single error type raised by memtier's core. Op names the
// failing operation for context; Err, if set, is the underlying cause (e.g.
// an *os.PathError from the file tier).
type StoreError struct {
	Kind Kind
	Op   string
	Err  error
}

// New constructs a StoreError of the given kind.
func New(kind Kind, op string, cause error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: cause}
}

// Newf is like New, but builds Op from a format string.
func Newf(kind Kind, cause error, format string, args ...any) *StoreError {
	return New(kind, fmt.Sprintf(format, args...), cause)
}

func (e *StoreError) Error() string {
	if e.Op == "" && e.Err == nil {
		return "memtier: " + e.Kind.String()
	}
	if e.Err == nil {
		return fmt.Sprintf("memtier: %s: %s", e.Op, e.Kind)
	}
	if e.Op == "" {
		return fmt.Sprintf("memtier: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("memtier: %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *StoreError) Unwrap() error { return e.Err }

// Is reports whether target is a *StoreError of the same Kind, so that
// errors.Is(err, errs.ErrOutOfCapacity) works regardless of Op/Err context.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for use with errors.Is. These carry no Op/Err context of
// their own; compare against them, don't return them directly from a
// constructor that has real context to attach.
var (
	ErrOutOfCapacity   = &StoreError{Kind: OutOfCapacity}
	ErrInvalidHandle   = &StoreError{Kind: InvalidHandle}
	ErrInvalidArgument = &StoreError{Kind: InvalidArgument}
	ErrIoError         = &StoreError{Kind: IoError}
	ErrClosed          = &StoreError{Kind: Closed}
)
