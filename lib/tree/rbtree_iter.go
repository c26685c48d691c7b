package tree

import "github.com/benz9527/xstl/lib/infra"

// iterNode hides the key extraction type parameter from the iterator.
type iterNode[K, V any] interface {
	RBNode[K, V]
	isHeader() bool
	succNode() iterNode[K, V]
	predNode() iterNode[K, V]
	valRef() *V
	keyOf(val V) K
}

func (node *rbNode[K, V, X]) succNode() iterNode[K, V] {
	return node.succ()
}

func (node *rbNode[K, V, X]) predNode() iterNode[K, V] {
	return node.pred()
}

func (node *rbNode[K, V, X]) valRef() *V {
	return &node.val
}

func (node *rbNode[K, V, X]) keyOf(val V) K {
	var kov X
	return kov.Key(val)
}

// Iterator is a non-owning position in a tree. The End position is the
// header. An iterator is invalidated only when its own element is erased.
type Iterator[K, V any] struct {
	node iterNode[K, V]
	less infra.LessFunc[K]
}

func (it Iterator[K, V]) IsEnd() bool {
	return it.node == nil || it.node.isHeader()
}

// Key panics on End.
func (it Iterator[K, V]) Key() K {
	it.mustDeref()
	return it.node.Key()
}

// Val panics on End.
func (it Iterator[K, V]) Val() V {
	it.mustDeref()
	return it.node.Val()
}

// SetVal overwrites the element value in place. The key of val must be
// equivalent to the current key, the position is never changed.
func (it Iterator[K, V]) SetVal(val V) error {
	if it.IsEnd() {
		return infra.WrapErrorStackWithMessage(ErrRBTreeInvalidIterator, "set value at end")
	}
	if it.less != nil && !it.less.Equivalent(it.node.Key(), it.node.keyOf(val)) {
		return infra.WrapErrorStackWithMessage(ErrRBTreeKeyChanged, "set value")
	}
	*it.node.valRef() = val
	return nil
}

// Next of the last element is End, Next of End stays at End.
func (it Iterator[K, V]) Next() Iterator[K, V] {
	if it.IsEnd() {
		return it
	}
	return Iterator[K, V]{node: it.node.succNode(), less: it.less}
}

// Prev of End is the last element, Prev of the first element is End.
func (it Iterator[K, V]) Prev() Iterator[K, V] {
	if it.node == nil {
		return it
	}
	return Iterator[K, V]{node: it.node.predNode(), less: it.less}
}

func (it Iterator[K, V]) Equal(other Iterator[K, V]) bool {
	if it.IsEnd() && other.IsEnd() {
		return it.node == nil || other.node == nil || it.node == other.node
	}
	return it.node == other.node
}

// Node returns nil at End.
func (it Iterator[K, V]) Node() RBNode[K, V] {
	if it.IsEnd() {
		return nil
	}
	return it.node
}

func (it Iterator[K, V]) mustDeref() {
	if it.IsEnd() {
		panic(infra.WrapErrorStackWithMessage(ErrRBTreeInvalidIterator, "dereference end"))
	}
}
