package kv

import (
	"io"
	"reflect"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xstl/lib/alloc"
	"github.com/benz9527/xstl/lib/infra"
	"github.com/benz9527/xstl/lib/tree"
	"github.com/benz9527/xstl/xlog"
)

type threadSafeMap[K infra.OrderedKey, V any] struct {
	lock           sync.RWMutex
	items          *OrderedMap[K, V]
	opts           []OrderedOption[K]
	isClosableItem bool
	purgeWorkers   int
	logger         xlog.XLogger
}

func (t *threadSafeMap[K, V]) AddOrUpdate(key K, obj V) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.items.Put(key, obj)
}

// Replace swaps in a new map built from items. The previous content is
// kept if the new map cannot be built.
func (t *threadSafeMap[K, V]) Replace(items map[K]V) error {
	m, err := NewOrderedMap[K, V](t.opts...)
	if err != nil {
		return err
	}
	for key, item := range items {
		if err = m.Put(key, item); err != nil {
			m.Release()
			return err
		}
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	t.items.Release()
	t.items = m
	return nil
}

func (t *threadSafeMap[K, V]) Delete(key K) (V, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if item, exists := t.items.Delete(key); exists {
		return item, nil
	}
	var v V
	return v, infra.WrapErrorStack(ErrKeyNotFound)
}

func (t *threadSafeMap[K, V]) Get(key K) (item V, exists bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.items.Get(key)
}

func (t *threadSafeMap[K, V]) ListKeys(filters ...SafeStoreKeyFilterFunc[K]) []K {
	realFilters := make([]SafeStoreKeyFilterFunc[K], 0, len(filters))
	for _, filter := range filters {
		if filter != nil {
			realFilters = append(realFilters, filter)
		}
	}
	if len(realFilters) == 0 {
		realFilters = append(realFilters, defaultAllKeysFilter[K])
	}

	t.lock.RLock()
	defer t.lock.RUnlock()

	keys := make([]K, 0, t.items.Len())
	t.items.Foreach(func(key K, _ V) bool {
		for _, filter := range realFilters {
			if filter(key) {
				keys = append(keys, key)
				break
			}
		}
		return true
	})
	return keys
}

// ListValues lists the values of keys in key order, all values if no key
// is given. Absent keys are skipped.
func (t *threadSafeMap[K, V]) ListValues(keys ...K) (items []V) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if len(keys) == 0 {
		return t.items.Values()
	}
	wanted, err := NewOrderedSet[K](t.setOpts()...)
	if err != nil {
		return nil
	}
	defer wanted.Release()
	for _, key := range keys {
		if _, err = wanted.Add(key); err != nil {
			return nil
		}
	}

	values := make([]V, 0, wanted.Len())
	wanted.Foreach(func(key K) bool {
		if item, exists := t.items.Get(key); exists {
			values = append(values, item)
		}
		return true
	})
	return values
}

func (t *threadSafeMap[K, V]) setOpts() []OrderedOption[K] {
	cfg := &orderedCfg[K]{}
	for _, o := range t.opts {
		if o != nil {
			o(cfg)
		}
	}
	opts := make([]OrderedOption[K], 0, 2)
	if cfg.less != nil {
		opts = append(opts, WithOrderedLess[K](cfg.less))
	}
	if cfg.isDesc {
		opts = append(opts, WithDescOrder[K]())
	}
	return opts
}

// Purge closes the io.Closer items if enabled and drops everything.
// Close errors are combined.
func (t *threadSafeMap[K, V]) Purge() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	var merr error
	if t.isClosableItem {
		closers := make([]io.Closer, 0, t.items.Len())
		t.items.Foreach(func(_ K, item V) bool {
			if isNilItem(item) {
				return true
			}
			if closer, ok := any(item).(io.Closer); ok {
				closers = append(closers, closer)
			}
			return true
		})
		merr = t.closeAll(closers)
	}
	t.items.Clear()
	return merr
}

func (t *threadSafeMap[K, V]) closeAll(closers []io.Closer) error {
	var merr error
	if t.purgeWorkers <= 1 || len(closers) <= 1 {
		for _, closer := range closers {
			merr = multierr.Append(merr, closer.Close())
		}
		return merr
	}

	pool, err := ants.NewPool(
		min(t.purgeWorkers, len(closers)),
		ants.WithPreAlloc(true),
		ants.WithLogger(xlog.NewAntsXLogger(t.logger)),
	)
	if err != nil {
		t.logger.Warn("purge workers unavailable, closing items one by one", zap.Error(err))
		t.purgeWorkers = 1
		return t.closeAll(closers)
	}
	defer pool.Release()

	var (
		errLock sync.Mutex
		wg      sync.WaitGroup
	)
	for _, closer := range closers {
		closer := closer
		wg.Add(1)
		if err = pool.Submit(func() {
			defer wg.Done()
			if err := closer.Close(); err != nil {
				errLock.Lock()
				merr = multierr.Append(merr, err)
				errLock.Unlock()
			}
		}); err != nil {
			wg.Done()
			errLock.Lock()
			merr = multierr.Append(merr, closer.Close())
			errLock.Unlock()
		}
	}
	wg.Wait()
	return merr
}

func isNilItem(item any) bool {
	if item == nil {
		return true
	}
	switch v := reflect.ValueOf(item); v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
	}
	return false
}

type threadSafeMapCfg[K infra.OrderedKey, V any] struct {
	orderedOpts    []OrderedOption[K]
	closeableCheck bool
	purgeWorkers   int
	logger         xlog.XLogger
}

type ThreadSafeMapOption[K infra.OrderedKey, V any] func(*threadSafeMapCfg[K, V])

// WithThreadSafeMapInitCap allocates the entries from arena buffers of
// capacity entries.
func WithThreadSafeMapInitCap[K infra.OrderedKey, V any](capacity uint32) ThreadSafeMapOption[K, V] {
	return func(cfg *threadSafeMapCfg[K, V]) {
		if capacity == 0 {
			return
		}
		cfg.orderedOpts = append(cfg.orderedOpts, WithOrderedTreeOpts[K](
			tree.WithRBTreeAllocator(alloc.WithArenaStrategy(capacity, 0)),
		))
	}
}

// WithThreadSafeMapCloseableItemCheck makes Purge close the io.Closer items.
func WithThreadSafeMapCloseableItemCheck[K infra.OrderedKey, V any]() ThreadSafeMapOption[K, V] {
	return func(cfg *threadSafeMapCfg[K, V]) {
		cfg.closeableCheck = true
	}
}

// WithThreadSafeMapPurgeWorkers closes the items of Purge concurrently on
// a pool of size goroutines.
func WithThreadSafeMapPurgeWorkers[K infra.OrderedKey, V any](size int) ThreadSafeMapOption[K, V] {
	return func(cfg *threadSafeMapCfg[K, V]) {
		cfg.purgeWorkers = size
	}
}

func WithThreadSafeMapLogger[K infra.OrderedKey, V any](logger xlog.XLogger) ThreadSafeMapOption[K, V] {
	return func(cfg *threadSafeMapCfg[K, V]) {
		cfg.logger = logger
	}
}

func WithThreadSafeMapOrderedOpts[K infra.OrderedKey, V any](opts ...OrderedOption[K]) ThreadSafeMapOption[K, V] {
	return func(cfg *threadSafeMapCfg[K, V]) {
		cfg.orderedOpts = append(cfg.orderedOpts, opts...)
	}
}

func NewThreadSafeMap[K infra.OrderedKey, V any](opts ...ThreadSafeMapOption[K, V]) (ThreadSafeStorer[K, V], error) {
	cfg := &threadSafeMapCfg[K, V]{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}

	isCloserItem := false
	if cfg.closeableCheck {
		// Interface typed items are checked one by one on purge.
		typ := reflect.TypeOf((*V)(nil)).Elem()
		isCloserItem = typ.Kind() == reflect.Interface ||
			typ.Implements(reflect.TypeOf((*io.Closer)(nil)).Elem())
	}

	if cfg.logger == nil {
		cfg.logger = xlog.NewNopXLogger()
	}

	items, err := NewOrderedMap[K, V](cfg.orderedOpts...)
	if err != nil {
		return nil, err
	}
	return &threadSafeMap[K, V]{
		items:          items,
		opts:           cfg.orderedOpts,
		isClosableItem: isCloserItem,
		purgeWorkers:   cfg.purgeWorkers,
		logger:         cfg.logger.Named("kv"),
	}, nil
}
