// Package memtier is an embeddable object cache that stores opaque byte
// payloads outside the Go heap, addressed by opaque 64-bit handles, with
// automatic eviction under memory pressure.
package memtier

import (
	"github.com/flier/memtier/pkg/memtier/alloc"
	"github.com/flier/memtier/pkg/memtier/errs"
)

// Handle is the opaque, non-zero 64-bit token returned by Put and used as
// the sole identity of a stored entry. Handles are assigned monotonically
// from 1 and are never reissued, even after the entry they named is removed
// or evicted.
type Handle = uint64

// MemoryPointer and Tier are aliased from pkg/memtier/alloc, which owns
// their definition (Allocator implementations construct and compare them).
// Aliasing rather than redefining keeps there being exactly one type across
// package boundaries without pkg/memtier/alloc needing to import this
// package back.
type (
	MemoryPointer = alloc.MemoryPointer
	Tier          = alloc.Tier
)

const (
	InMemory = alloc.InMemory
	OnFile   = alloc.OnFile
)

// StoreError, Kind, and the sentinel errors are aliased from
// pkg/memtier/errs for the same reason.
type (
	StoreError = errs.StoreError
	Kind       = errs.Kind
)

const (
	OutOfCapacity   = errs.OutOfCapacity
	InvalidHandle   = errs.InvalidHandle
	InvalidArgument = errs.InvalidArgument
	IoError         = errs.IoError
	Closed          = errs.Closed
)

var (
	ErrOutOfCapacity   = errs.ErrOutOfCapacity
	ErrInvalidHandle   = errs.ErrInvalidHandle
	ErrInvalidArgument = errs.ErrInvalidArgument
	ErrIoError         = errs.ErrIoError
	ErrClosed          = errs.ErrClosed
)
