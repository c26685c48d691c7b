package kv

import (
	"github.com/benz9527/xstl/lib/infra"
	"github.com/benz9527/xstl/lib/tree"
)

type orderedCfg[K any] struct {
	less     infra.LessFunc[K]
	isDesc   bool
	treeOpts []tree.RBTreeOpt
}

type OrderedOption[K any] func(*orderedCfg[K])

// WithOrderedLess replaces the natural order of the keys.
func WithOrderedLess[K any](less infra.LessFunc[K]) OrderedOption[K] {
	return func(cfg *orderedCfg[K]) {
		cfg.less = less
	}
}

func WithDescOrder[K any]() OrderedOption[K] {
	return func(cfg *orderedCfg[K]) {
		cfg.isDesc = true
	}
}

// WithOrderedTreeOpts passes options (allocator, logger, stats...) to
// the backing tree.
func WithOrderedTreeOpts[K any](opts ...tree.RBTreeOpt) OrderedOption[K] {
	return func(cfg *orderedCfg[K]) {
		cfg.treeOpts = append(cfg.treeOpts, opts...)
	}
}

func loadOrderedCfg[K infra.OrderedKey](opts ...OrderedOption[K]) *orderedCfg[K] {
	cfg := &orderedCfg[K]{
		less: infra.OrderedLess[K],
	}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if cfg.isDesc {
		cfg.treeOpts = append(cfg.treeOpts, tree.WithRBTreeDesc())
	}
	return cfg
}

// ordered holds what every ordered container does on its tree.
type ordered[K, V any] struct {
	rbt tree.RBTree[K, V]
}

func (o *ordered[K, V]) Len() int64 {
	return o.rbt.Len()
}

func (o *ordered[K, V]) IsEmpty() bool {
	return o.rbt.IsEmpty()
}

func (o *ordered[K, V]) Clear() {
	o.rbt.Clear()
}

// Release drops the storage, the container must not be used afterwards.
func (o *ordered[K, V]) Release() {
	o.rbt.Release()
}

func (o *ordered[K, V]) all() []V {
	vals := make([]V, 0, o.rbt.Len())
	o.rbt.Foreach(func(idx int64, color tree.RBColor, val V) bool {
		vals = append(vals, val)
		return true
	})
	return vals
}

// between collects the values with from <= key < to.
func (o *ordered[K, V]) between(from, to K) []V {
	vals := make([]V, 0, 8)
	if o.rbt.Less()(to, from) {
		return vals
	}
	last := o.rbt.LowerBound(to)
	for it := o.rbt.LowerBound(from); !it.IsEnd() && !it.Equal(last); it = it.Next() {
		vals = append(vals, it.Val())
	}
	return vals
}

func (o *ordered[K, V]) equals(key K) []V {
	first, last := o.rbt.EqualRange(key)
	vals := make([]V, 0, 1)
	for it := first; !it.Equal(last); it = it.Next() {
		vals = append(vals, it.Val())
	}
	return vals
}

func (o *ordered[K, V]) min() (V, bool) {
	return iterVal(o.rbt.Begin())
}

func (o *ordered[K, V]) max() (V, bool) {
	return iterVal(o.rbt.RBegin())
}

// floor is the last element with key <= key.
func (o *ordered[K, V]) floor(key K) (V, bool) {
	return iterVal(o.rbt.UpperBound(key).Prev())
}

// ceiling is the first element with key >= key.
func (o *ordered[K, V]) ceiling(key K) (V, bool) {
	return iterVal(o.rbt.LowerBound(key))
}

func iterVal[K, V any](it tree.Iterator[K, V]) (V, bool) {
	if it.IsEnd() {
		var v V
		return v, false
	}
	return it.Val(), true
}
