package kv

import (
	"github.com/samber/lo"

	"github.com/benz9527/xstl/lib/infra"
	"github.com/benz9527/xstl/lib/tree"
)

// OrderedSet keeps unique keys in order. It is not thread safe.
type OrderedSet[K any] struct {
	ordered[K, K]
}

func NewOrderedSet[K infra.OrderedKey](opts ...OrderedOption[K]) (*OrderedSet[K], error) {
	cfg := loadOrderedCfg[K](opts...)
	rbt, err := tree.NewSetRBTree[K](cfg.less, cfg.treeOpts...)
	if err != nil {
		return nil, err
	}
	return &OrderedSet[K]{ordered[K, K]{rbt: rbt}}, nil
}

// Add reports false if an equivalent key is present.
func (s *OrderedSet[K]) Add(key K) (bool, error) {
	_, ok, err := s.rbt.InsertUnique(key)
	return ok, err
}

func (s *OrderedSet[K]) Contains(key K) bool {
	return s.rbt.Contains(key)
}

func (s *OrderedSet[K]) Delete(key K) bool {
	return s.rbt.EraseKey(key) > 0
}

func (s *OrderedSet[K]) Keys() []K {
	return s.all()
}

func (s *OrderedSet[K]) Foreach(fn func(key K) bool) {
	s.rbt.Foreach(func(idx int64, color tree.RBColor, key K) bool {
		return fn(key)
	})
}

func (s *OrderedSet[K]) Min() (K, bool) {
	return s.min()
}

func (s *OrderedSet[K]) Max() (K, bool) {
	return s.max()
}

func (s *OrderedSet[K]) Floor(key K) (K, bool) {
	return s.floor(key)
}

func (s *OrderedSet[K]) Ceiling(key K) (K, bool) {
	return s.ceiling(key)
}

// Range returns the keys with from <= key < to.
func (s *OrderedSet[K]) Range(from, to K) []K {
	return s.between(from, to)
}

// Filter returns the keys matched by fn in order.
func (s *OrderedSet[K]) Filter(fn func(key K) bool) []K {
	return lo.Filter(s.all(), func(key K, _ int) bool {
		return fn(key)
	})
}

func (s *OrderedSet[K]) Clone() (*OrderedSet[K], error) {
	rbt, err := s.rbt.Clone()
	if err != nil {
		return nil, err
	}
	return &OrderedSet[K]{ordered[K, K]{rbt: rbt}}, nil
}

// OrderedMultiSet keeps every key added. It is not thread safe.
type OrderedMultiSet[K any] struct {
	ordered[K, K]
}

func NewOrderedMultiSet[K infra.OrderedKey](opts ...OrderedOption[K]) (*OrderedMultiSet[K], error) {
	cfg := loadOrderedCfg[K](opts...)
	rbt, err := tree.NewSetRBTree[K](cfg.less, cfg.treeOpts...)
	if err != nil {
		return nil, err
	}
	return &OrderedMultiSet[K]{ordered[K, K]{rbt: rbt}}, nil
}

func (s *OrderedMultiSet[K]) Add(key K) error {
	_, err := s.rbt.Insert(key)
	return err
}

func (s *OrderedMultiSet[K]) Contains(key K) bool {
	return s.rbt.Contains(key)
}

func (s *OrderedMultiSet[K]) Count(key K) int64 {
	return s.rbt.Count(key)
}

// Delete removes every copy of the key.
func (s *OrderedMultiSet[K]) Delete(key K) int64 {
	return s.rbt.EraseKey(key)
}

// DeleteOne removes a single copy of the key.
func (s *OrderedMultiSet[K]) DeleteOne(key K) bool {
	it := s.rbt.Find(key)
	if it.IsEnd() {
		return false
	}
	s.rbt.Erase(it)
	return true
}

func (s *OrderedMultiSet[K]) Keys() []K {
	return s.all()
}

// Distinct lists each key once.
func (s *OrderedMultiSet[K]) Distinct() []K {
	less := s.rbt.Less()
	keys := make([]K, 0, s.rbt.Len())
	for _, key := range s.all() {
		if len(keys) == 0 || less(keys[len(keys)-1], key) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (s *OrderedMultiSet[K]) Foreach(fn func(key K) bool) {
	s.rbt.Foreach(func(idx int64, color tree.RBColor, key K) bool {
		return fn(key)
	})
}

func (s *OrderedMultiSet[K]) Min() (K, bool) {
	return s.min()
}

func (s *OrderedMultiSet[K]) Max() (K, bool) {
	return s.max()
}

func (s *OrderedMultiSet[K]) Floor(key K) (K, bool) {
	return s.floor(key)
}

func (s *OrderedMultiSet[K]) Ceiling(key K) (K, bool) {
	return s.ceiling(key)
}

func (s *OrderedMultiSet[K]) Range(from, to K) []K {
	return s.between(from, to)
}

func (s *OrderedMultiSet[K]) Clone() (*OrderedMultiSet[K], error) {
	rbt, err := s.rbt.Clone()
	if err != nil {
		return nil, err
	}
	return &OrderedMultiSet[K]{ordered[K, K]{rbt: rbt}}, nil
}
