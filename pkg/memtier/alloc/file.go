package alloc

import (
	"os"
	"sync"

	"github.com/flier/memtier/pkg/memtier/errs"
)

// fileTier is Hybrid's backing-file overflow channel: an ephemeral scratch
// file of unbounded (file-system-limited) length, append-only at the byte
// level. Position and I/O are treated as one atomic unit behind a single
// mutex, since the channel carries cursor state that concurrent callers
// would otherwise race on.
//
// Grounded on the shape of cznic-exp/lldb's Filer (ReadAt/WriteAt by
// explicit offset, Close) consulted as pack reference material — rewritten
// here for memtier's narrower, append-only, single-process contract rather
// than Filer's general transactional file abstraction.
type fileTier struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	used   int64
	closed bool
}

// newFileTier creates a fresh ephemeral backing file in the default temp
// directory.
func newFileTier() (*fileTier, error) {
	f, err := os.CreateTemp("", "memtier-*.tier")
	if err != nil {
		return nil, errs.New(errs.IoError, "alloc.fileTier.newFileTier", err)
	}

	return &fileTier{file: f, path: f.Name()}, nil
}

// reserve bumps the file cursor by size and returns the start offset. This
// never fails except when the tier is already closed: per spec, the file
// tier is semantically unbounded for admission purposes, so there is no
// capacity check to perform here.
func (t *fileTier) reserve(size uint32) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, errs.New(errs.Closed, "alloc.fileTier.reserve", nil)
	}

	off := t.used
	t.used += int64(size)

	return off, nil
}

func (t *fileTier) writeAt(off int64, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errs.New(errs.Closed, "alloc.fileTier.writeAt", nil)
	}
	if _, err := t.file.WriteAt(data, off); err != nil {
		return errs.New(errs.IoError, "alloc.fileTier.writeAt", err)
	}

	return nil
}

func (t *fileTier) readAt(off int64, size uint32) ([]byte, error) {
	buf := make([]byte, size)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, errs.New(errs.Closed, "alloc.fileTier.readAt", nil)
	}
	if _, err := t.file.ReadAt(buf, off); err != nil {
		return nil, errs.New(errs.IoError, "alloc.fileTier.readAt", err)
	}

	return buf, nil
}

// free decrements the live-byte counter. Holes are not reclaimed or
// compacted, matching the arena's own bump-only behavior and the spec's
// explicit open question about file-tier compaction being out of scope.
func (t *fileTier) free(size uint32) {
	t.mu.Lock()
	t.used -= int64(size)
	t.mu.Unlock()
}

func (t *fileTier) Used() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return uint64(t.used)
}

// Close deletes the ephemeral backing file. On most platforms, removing an
// open file only unlinks its directory entry; the space is reclaimed when
// the descriptor is closed, which happens right after, so a failed os.Remove
// here still leaves nothing behind once the process exits and the OS tears
// down the handle — there is no separate deferred-deletion mechanism to
// build.
func (t *fileTier) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	cerr := t.file.Close()
	_ = os.Remove(t.path)

	if cerr != nil {
		return errs.New(errs.IoError, "alloc.fileTier.Close", cerr)
	}

	return nil
}
