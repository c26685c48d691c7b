package kv

import (
	"github.com/samber/lo"

	"github.com/benz9527/xstl/lib/infra"
	"github.com/benz9527/xstl/lib/tree"
)

// OrderedMap keeps unique keys in order. It is not thread safe.
type OrderedMap[K, V any] struct {
	ordered[K, tree.Pair[K, V]]
}

func NewOrderedMap[K infra.OrderedKey, V any](opts ...OrderedOption[K]) (*OrderedMap[K, V], error) {
	cfg := loadOrderedCfg[K](opts...)
	rbt, err := tree.NewMapRBTree[K, V](cfg.less, cfg.treeOpts...)
	if err != nil {
		return nil, err
	}
	return &OrderedMap[K, V]{ordered[K, tree.Pair[K, V]]{rbt: rbt}}, nil
}

// Put inserts the key or overwrites the value of the present key.
func (m *OrderedMap[K, V]) Put(key K, val V) error {
	pair := tree.Pair[K, V]{Key: key, Val: val}
	it, ok, err := m.rbt.InsertUnique(pair)
	if err != nil {
		return err
	}
	if !ok {
		// The key already stored is kept.
		return it.SetVal(tree.Pair[K, V]{Key: it.Key(), Val: val})
	}
	return nil
}

// PutIfAbsent reports false and keeps the value if the key is present.
func (m *OrderedMap[K, V]) PutIfAbsent(key K, val V) (bool, error) {
	_, ok, err := m.rbt.InsertUnique(tree.Pair[K, V]{Key: key, Val: val})
	return ok, err
}

func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	it := m.rbt.Find(key)
	if it.IsEnd() {
		var v V
		return v, false
	}
	return it.Val().Val, true
}

func (m *OrderedMap[K, V]) Contains(key K) bool {
	return m.rbt.Contains(key)
}

func (m *OrderedMap[K, V]) Delete(key K) (V, bool) {
	it := m.rbt.Find(key)
	if it.IsEnd() {
		var v V
		return v, false
	}
	val := it.Val().Val
	m.rbt.Erase(it)
	return val, true
}

func (m *OrderedMap[K, V]) Entries() []tree.Pair[K, V] {
	return m.all()
}

func (m *OrderedMap[K, V]) Keys() []K {
	return lo.Map(m.all(), func(p tree.Pair[K, V], _ int) K {
		return p.Key
	})
}

func (m *OrderedMap[K, V]) Values() []V {
	return lo.Map(m.all(), func(p tree.Pair[K, V], _ int) V {
		return p.Val
	})
}

// Foreach visits the entries in order until fn returns false.
func (m *OrderedMap[K, V]) Foreach(fn func(key K, val V) bool) {
	m.rbt.Foreach(func(idx int64, color tree.RBColor, p tree.Pair[K, V]) bool {
		return fn(p.Key, p.Val)
	})
}

func (m *OrderedMap[K, V]) Min() (tree.Pair[K, V], bool) {
	return m.min()
}

func (m *OrderedMap[K, V]) Max() (tree.Pair[K, V], bool) {
	return m.max()
}

func (m *OrderedMap[K, V]) Floor(key K) (tree.Pair[K, V], bool) {
	return m.floor(key)
}

func (m *OrderedMap[K, V]) Ceiling(key K) (tree.Pair[K, V], bool) {
	return m.ceiling(key)
}

// Range returns the entries with from <= key < to.
func (m *OrderedMap[K, V]) Range(from, to K) []tree.Pair[K, V] {
	return m.between(from, to)
}

func (m *OrderedMap[K, V]) Clone() (*OrderedMap[K, V], error) {
	rbt, err := m.rbt.Clone()
	if err != nil {
		return nil, err
	}
	return &OrderedMap[K, V]{ordered[K, tree.Pair[K, V]]{rbt: rbt}}, nil
}

// OrderedMultiMap keeps every value put, values of equal keys in the
// order they were put. It is not thread safe.
type OrderedMultiMap[K, V any] struct {
	ordered[K, tree.Pair[K, V]]
}

func NewOrderedMultiMap[K infra.OrderedKey, V any](opts ...OrderedOption[K]) (*OrderedMultiMap[K, V], error) {
	cfg := loadOrderedCfg[K](opts...)
	rbt, err := tree.NewMapRBTree[K, V](cfg.less, cfg.treeOpts...)
	if err != nil {
		return nil, err
	}
	return &OrderedMultiMap[K, V]{ordered[K, tree.Pair[K, V]]{rbt: rbt}}, nil
}

func (m *OrderedMultiMap[K, V]) Put(key K, val V) error {
	_, err := m.rbt.Insert(tree.Pair[K, V]{Key: key, Val: val})
	return err
}

func (m *OrderedMultiMap[K, V]) Get(key K) []V {
	return lo.Map(m.equals(key), func(p tree.Pair[K, V], _ int) V {
		return p.Val
	})
}

func (m *OrderedMultiMap[K, V]) Contains(key K) bool {
	return m.rbt.Contains(key)
}

func (m *OrderedMultiMap[K, V]) Count(key K) int64 {
	return m.rbt.Count(key)
}

// Delete removes every value of the key.
func (m *OrderedMultiMap[K, V]) Delete(key K) int64 {
	return m.rbt.EraseKey(key)
}

// DeleteFunc removes the values of the key matched by fn.
func (m *OrderedMultiMap[K, V]) DeleteFunc(key K, fn func(val V) bool) int64 {
	n := int64(0)
	first, last := m.rbt.EqualRange(key)
	for it := first; !it.Equal(last); {
		if fn(it.Val().Val) {
			it = m.rbt.Erase(it)
			n++
			continue
		}
		it = it.Next()
	}
	return n
}

func (m *OrderedMultiMap[K, V]) Entries() []tree.Pair[K, V] {
	return m.all()
}

// Keys lists the distinct keys.
func (m *OrderedMultiMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.rbt.Len())
	less := m.rbt.Less()
	for _, p := range m.all() {
		if len(keys) == 0 || less(keys[len(keys)-1], p.Key) {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

func (m *OrderedMultiMap[K, V]) Values() []V {
	return lo.Map(m.all(), func(p tree.Pair[K, V], _ int) V {
		return p.Val
	})
}

func (m *OrderedMultiMap[K, V]) Foreach(fn func(key K, val V) bool) {
	m.rbt.Foreach(func(idx int64, color tree.RBColor, p tree.Pair[K, V]) bool {
		return fn(p.Key, p.Val)
	})
}

func (m *OrderedMultiMap[K, V]) Min() (tree.Pair[K, V], bool) {
	return m.min()
}

func (m *OrderedMultiMap[K, V]) Max() (tree.Pair[K, V], bool) {
	return m.max()
}

func (m *OrderedMultiMap[K, V]) Floor(key K) (tree.Pair[K, V], bool) {
	return m.floor(key)
}

func (m *OrderedMultiMap[K, V]) Ceiling(key K) (tree.Pair[K, V], bool) {
	return m.ceiling(key)
}

func (m *OrderedMultiMap[K, V]) Range(from, to K) []tree.Pair[K, V] {
	return m.between(from, to)
}

func (m *OrderedMultiMap[K, V]) Clone() (*OrderedMultiMap[K, V], error) {
	rbt, err := m.rbt.Clone()
	if err != nil {
		return nil, err
	}
	return &OrderedMultiMap[K, V]{ordered[K, tree.Pair[K, V]]{rbt: rbt}}, nil
}
