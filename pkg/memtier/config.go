package memtier

import (
	"time"

	"github.com/flier/memtier/pkg/memtier/alloc"
	"github.com/flier/memtier/pkg/memtier/errs"
	"github.com/flier/memtier/pkg/memtier/evict"
)

// Spec-mandated defaults.
const (
	DefaultMemoryCapacity    = 1 << 30 // 1 GiB
	DefaultMemoryThreshold   = 0.5
	DefaultEvictionThreshold = 0.75
	DefaultCleanupInterval   = 60 * time.Second
)

// AllocatorKind selects which Allocator backend New builds when
// Config.Allocator is left nil.
type AllocatorKind uint8

const (
	// ArenaAllocator bounds the store to a single fixed off-heap region;
	// puts beyond its capacity fail once eviction can't make room.
	ArenaAllocator AllocatorKind = iota
	// HybridAllocator overflows to an unbounded backing file once the arena
	// crosses Config.MemoryThreshold.
	HybridAllocator
)

// Config configures a Store. Build one with DefaultConfig and NewConfig's
// functional options, or set fields directly — the zero Config is not valid
// (EvictionThreshold and MemoryCapacity must be set).
type Config struct {
	// MemoryCapacity is the off-heap arena's total byte capacity.
	MemoryCapacity uint64
	// MemoryThreshold is the Hybrid allocator's arena fill ratio, in (0,1),
	// above which new allocations spill to the file tier. Ignored for
	// ArenaAllocator and whenever Allocator is set directly.
	MemoryThreshold float64
	// EvictionThreshold is the used/capacity ratio, in (0,1), at or above
	// which Put and Tick evict entries. Ignored whenever Policy is set
	// directly.
	EvictionThreshold float64
	// CleanupInterval is the period StartTicker uses if the caller wants a
	// background cleanup goroutine. The Store itself never schedules its own
	// tick; this field only configures the optional helper.
	CleanupInterval time.Duration

	// AllocatorKind picks the default Allocator when Allocator is nil.
	AllocatorKind AllocatorKind
	// Allocator, if set, overrides AllocatorKind entirely.
	Allocator alloc.Allocator
	// Policy, if set, overrides the default LRU policy (and
	// EvictionThreshold, which the default policy would otherwise consume).
	Policy evict.Policy
}

// DefaultConfig returns a Config with spec-mandated defaults: a 1 GiB arena
// allocator, 0.75 eviction threshold, 60s cleanup interval.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:    DefaultMemoryCapacity,
		MemoryThreshold:   DefaultMemoryThreshold,
		EvictionThreshold: DefaultEvictionThreshold,
		CleanupInterval:   DefaultCleanupInterval,
		AllocatorKind:     ArenaAllocator,
	}
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithMemoryCapacity overrides the arena's byte capacity.
func WithMemoryCapacity(bytes uint64) Option {
	return func(c *Config) { c.MemoryCapacity = bytes }
}

// WithMemoryThreshold overrides the Hybrid allocator's spill threshold.
func WithMemoryThreshold(ratio float64) Option {
	return func(c *Config) { c.MemoryThreshold = ratio }
}

// WithEvictionThreshold overrides the default policy's pressure threshold.
func WithEvictionThreshold(ratio float64) Option {
	return func(c *Config) { c.EvictionThreshold = ratio }
}

// WithCleanupInterval overrides StartTicker's default period.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Config) { c.CleanupInterval = d }
}

// WithHybridAllocator selects the Hybrid allocator backend.
func WithHybridAllocator() Option {
	return func(c *Config) { c.AllocatorKind = HybridAllocator }
}

// WithAllocator installs a caller-supplied Allocator, bypassing AllocatorKind.
func WithAllocator(a alloc.Allocator) Option {
	return func(c *Config) { c.Allocator = a }
}

// WithPolicy installs a caller-supplied EvictionPolicy, bypassing the
// default LRU.
func WithPolicy(p evict.Policy) Option {
	return func(c *Config) { c.Policy = p }
}

// NewConfig applies opts on top of DefaultConfig.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// validate checks the fields New actually consults before building anything.
func (c Config) validate() error {
	if c.MemoryCapacity == 0 {
		return errs.New(errs.InvalidArgument, "memtier.Config: memory capacity must be positive", nil)
	}

	if c.Policy == nil && (c.EvictionThreshold <= 0 || c.EvictionThreshold >= 1) {
		return errs.Newf(errs.InvalidArgument, nil, "memtier.Config: eviction threshold %v out of (0,1)", c.EvictionThreshold)
	}

	if c.Allocator == nil && c.AllocatorKind == HybridAllocator &&
		(c.MemoryThreshold <= 0 || c.MemoryThreshold >= 1) {
		return errs.Newf(errs.InvalidArgument, nil, "memtier.Config: memory threshold %v out of (0,1)", c.MemoryThreshold)
	}

	return nil
}
