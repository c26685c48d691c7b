package alloc

import (
	"strings"

	"go.uber.org/multierr"

	"github.com/benz9527/xstl/lib/infra"
)

const (
	defaultArenaCapPerBuf = 256
)

type strategy uint8

const (
	heapStrategy strategy = iota
	poolStrategy
	arenaStrategy
)

type allocatorCfg struct {
	strategy       strategy
	arenaCapPerBuf uint32
	arenaMaxBufs   uint32
	maxObjects     int64
	meterName      string
}

type Option func(*allocatorCfg) error

// WithHeapStrategy is the default, every object comes from new(T).
func WithHeapStrategy() Option {
	return func(cfg *allocatorCfg) error {
		cfg.strategy = heapStrategy
		return nil
	}
}

func WithPoolStrategy() Option {
	return func(cfg *allocatorCfg) error {
		cfg.strategy = poolStrategy
		return nil
	}
}

// WithArenaStrategy allocates objects from buffers of capPerBuf objects.
// maxBufs > 0 bounds the arena, it reports ErrAllocationFailure once
// every buffer is used up and no object was recycled.
func WithArenaStrategy(capPerBuf, maxBufs uint32) Option {
	return func(cfg *allocatorCfg) error {
		if capPerBuf == 0 {
			return infra.WrapErrorStackWithMessage(ErrInvalidOption, "arena capacity per buffer is zero")
		}
		cfg.strategy = arenaStrategy
		cfg.arenaCapPerBuf = capPerBuf
		cfg.arenaMaxBufs = maxBufs
		return nil
	}
}

// WithMaxObjects bounds the number of live objects.
func WithMaxObjects(n int64) Option {
	return func(cfg *allocatorCfg) error {
		if n <= 0 {
			return infra.WrapErrorStackWithMessage(ErrInvalidOption, "max objects must be positive")
		}
		cfg.maxObjects = n
		return nil
	}
}

// WithMeter records allocator stats through the global otel meter provider.
func WithMeter(name string) Option {
	return func(cfg *allocatorCfg) error {
		if len(strings.TrimSpace(name)) == 0 {
			return infra.WrapErrorStackWithMessage(ErrInvalidOption, "empty meter name")
		}
		cfg.meterName = name
		return nil
	}
}

// New builds the allocator described by opts. The budget wraps the
// strategy and the meter wraps the budget, so rejected allocations are
// counted as failures.
func New[T any](opts ...Option) (Allocator[T], error) {
	cfg := &allocatorCfg{}
	var merr error
	for _, o := range opts {
		if o == nil {
			continue
		}
		merr = multierr.Append(merr, o(cfg))
	}
	if merr != nil {
		return nil, merr
	}

	var a Allocator[T]
	switch cfg.strategy {
	case poolStrategy:
		a = newPoolAllocator[T]()
	case arenaStrategy:
		a = newArenaAllocator[T](cfg.arenaCapPerBuf, cfg.arenaMaxBufs)
	default:
		a = &heapAllocator[T]{}
	}
	if cfg.maxObjects > 0 {
		a = &budgetAllocator[T]{
			Allocator:  a,
			maxObjects: cfg.maxObjects,
		}
	}
	if len(cfg.meterName) > 0 {
		a = &meteredAllocator[T]{
			Allocator: a,
			stats:     newAllocatorStats(cfg.meterName),
		}
	}
	return a, nil
}
