package tree

import (
	"errors"

	"github.com/benz9527/xstl/lib/infra"
)

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

func (c RBColor) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	default:
	}
	return "Unknown"
}

type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

func (d RBDirection) String() string {
	switch d {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "Unknown"
}

var (
	ErrRBTreeNilComparator       = errors.New("[rbtree] nil key comparator")
	ErrRBTreeIncompatible        = errors.New("[rbtree] incompatible tree implementation")
	ErrRBTreeInvalidOption       = errors.New("[rbtree] invalid option")
	ErrRBTreeKeyChanged          = errors.New("[rbtree] replacement changes the element key")
	ErrRBTreeInvalidIterator     = errors.New("[rbtree] invalid iterator")
	ErrRBTreeStructuralViolation = errors.New("[rbtree] structural invariant violation")
)

// KeyOfValue extracts the ordering key from a stored value. It is chosen
// once per tree as a type parameter, SetMode and MapMode cover the
// set-like and map-like containers.
type KeyOfValue[K, V any] interface {
	Key(val V) K
}

// SetMode stores the key itself.
type SetMode[K any] struct{}

func (SetMode[K]) Key(val K) K {
	return val
}

// Pair is the stored value of a map-like tree.
type Pair[K, M any] struct {
	Key K
	Val M
}

// MapMode orders Pair values by Pair.Key.
type MapMode[K, M any] struct{}

func (MapMode[K, M]) Key(val Pair[K, M]) K {
	return val.Key
}

// RBNode is a read-only view of a tree node. The sentinel header is
// never exposed, Parent of the root is nil.
type RBNode[K, V any] interface {
	Key() K
	Val() V
	HasVal() bool
	Color() RBColor
	Left() RBNode[K, V]
	Right() RBNode[K, V]
	Parent() RBNode[K, V]
}

// RBTree is the engine behind ordered set, multiset, map and multimap.
// Equal keys are allowed by Insert, the new element is placed after all
// the elements with an equivalent key.
// It is not thread safe.
type RBTree[K, V any] interface {
	Len() int64
	IsEmpty() bool
	Less() infra.LessFunc[K]
	Root() RBNode[K, V]
	Leftmost() RBNode[K, V]
	Rightmost() RBNode[K, V]

	Begin() Iterator[K, V]
	End() Iterator[K, V]
	// RBegin points to the last element, End if the tree is empty.
	RBegin() Iterator[K, V]

	Insert(val V) (Iterator[K, V], error)
	// InsertUnique returns the iterator of the element with an equivalent
	// key and false if there is one.
	InsertUnique(val V) (Iterator[K, V], bool, error)
	// Replace overwrites the value in place. The key extracted from val
	// must be equivalent to the current one.
	Replace(it Iterator[K, V], val V) error
	// Erase returns the iterator following the erased element.
	Erase(it Iterator[K, V]) Iterator[K, V]
	EraseRange(first, last Iterator[K, V]) Iterator[K, V]
	EraseKey(key K) int64
	PopMin() (V, bool)
	PopMax() (V, bool)

	Find(key K) Iterator[K, V]
	Contains(key K) bool
	Count(key K) int64
	// LowerBound points to the first element not ordered before key.
	LowerBound(key K) Iterator[K, V]
	// UpperBound points to the first element ordered after key.
	UpperBound(key K) Iterator[K, V]
	EqualRange(key K) (Iterator[K, V], Iterator[K, V])

	Foreach(action func(idx int64, color RBColor, val V) bool)
	ReverseForeach(action func(idx int64, color RBColor, val V) bool)

	// Clone deep copies the nodes, colors and comparator.
	Clone() (RBTree[K, V], error)
	// CopyFrom clears the tree then deep copies src into it.
	CopyFrom(src RBTree[K, V]) error
	// MoveFrom clears the tree then takes over the nodes of src,
	// src is left empty but usable.
	MoveFrom(src RBTree[K, V]) error
	// Move transfers the nodes into a new tree.
	Move() RBTree[K, V]
	Swap(other RBTree[K, V]) error
	Clear()
	// Release clears the tree and drops the header and the node storage.
	// The tree must not be used afterwards.
	Release()
}
