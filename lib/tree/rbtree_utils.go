package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xstl/lib/infra"
)

var (
	ErrRBTreeRedViolation      = errors.New("[rbtree] red violation")
	ErrRBTreeBlackViolation    = errors.New("[rbtree] black violation")
	ErrRBTreeExtremesViolation = errors.New("[rbtree] leftmost or rightmost violation")
	ErrRBTreeOrderViolation    = errors.New("[rbtree] order violation")
)

func isBlack[K, V any](node RBNode[K, V]) bool {
	return node == nil || node.Color() == Black
}

func isRed[K, V any](node RBNode[K, V]) bool {
	return node != nil && node.Color() == Red
}

func blackDepthTo[K, V any](target, to RBNode[K, V]) int {
	depth := 0
	for aux := target; aux != nil && aux != to; aux = aux.Parent() {
		if isBlack[K, V](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

// Inorder traversal to validate the rbtree properties.
func RedViolationValidate[K, V any](tree RBTree[K, V]) error {
	size := tree.Len()
	var aux RBNode[K, V] = tree.Root()
	if size <= 0 || aux == nil {
		return nil
	}
	if isRed[K, V](aux) {
		return infra.WrapErrorStackWithMessage(ErrRBTreeRedViolation, "red root")
	}

	stack := make([]RBNode[K, V], 0, size>>1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		if aux = stack[size-1]; isRed[K, V](aux) {
			if isRed[K, V](aux.Left()) || isRed[K, V](aux.Right()) {
				return infra.WrapErrorStackWithMessage(ErrRBTreeRedViolation,
					fmt.Sprintf("red node %v has a red child", aux.Key()))
			}
		}

		stack = stack[:size-1]
		if aux.Right() != nil {
			for aux = aux.Right(); aux != nil; aux = aux.Left() {
				stack = append(stack, aux)
			}
		}
	}
	return nil
}

// BFS traversal to load all nodes with at least one nil child.
func bfsLeaves[K, V any](tree RBTree[K, V]) []RBNode[K, V] {
	size := tree.Len()
	var aux RBNode[K, V] = tree.Root()
	if size <= 0 || aux == nil {
		return nil
	}

	leaves := make([]RBNode[K, V], 0, size>>1+1)
	queue := make([]RBNode[K, V], 0, size>>1+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            <16>

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[K, V any](tree RBTree[K, V]) error {
	leaves := bfsLeaves[K, V](tree)
	if leaves == nil {
		return nil
	}

	root := tree.Root()
	blackDepth := blackDepthTo[K, V](leaves[0], root)
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepthTo[K, V](leaves[i], root); depth != blackDepth {
			return infra.WrapErrorStackWithMessage(ErrRBTreeBlackViolation,
				fmt.Sprintf("node %v black depth %d, expected %d", leaves[i].Key(), depth, blackDepth))
		}
	}
	return nil
}

// ExtremesViolationValidate checks the cached leftmost and rightmost
// nodes against the real minimum and maximum.
func ExtremesViolationValidate[K, V any](tree RBTree[K, V]) error {
	root := tree.Root()
	if root == nil {
		if tree.Len() != 0 || tree.Leftmost() != nil || tree.Rightmost() != nil {
			return infra.WrapErrorStackWithMessage(ErrRBTreeExtremesViolation, "empty tree with extremes")
		}
		return nil
	}

	minNode, maxNode := root, root
	for ; minNode.Left() != nil; minNode = minNode.Left() {
	}
	for ; maxNode.Right() != nil; maxNode = maxNode.Right() {
	}
	if tree.Leftmost() != minNode {
		return infra.WrapErrorStackWithMessage(ErrRBTreeExtremesViolation,
			fmt.Sprintf("leftmost is not the minimum %v", minNode.Key()))
	}
	if tree.Rightmost() != maxNode {
		return infra.WrapErrorStackWithMessage(ErrRBTreeExtremesViolation,
			fmt.Sprintf("rightmost is not the maximum %v", maxNode.Key()))
	}
	return nil
}

// OrderViolationValidate checks the parent links, the in-order key
// sequence and the size.
func OrderViolationValidate[K, V any](tree RBTree[K, V]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if root.Parent() != nil {
		return infra.WrapErrorStackWithMessage(ErrRBTreeOrderViolation, "root with parent")
	}

	less := tree.Less()
	var (
		prev  RBNode[K, V]
		count int64
		walk  func(node RBNode[K, V]) error
	)
	walk = func(node RBNode[K, V]) error {
		if node == nil {
			return nil
		}
		for _, child := range []RBNode[K, V]{node.Left(), node.Right()} {
			if child != nil && child.Parent() != node {
				return infra.WrapErrorStackWithMessage(ErrRBTreeOrderViolation,
					fmt.Sprintf("broken parent link under %v", node.Key()))
			}
		}
		if err := walk(node.Left()); err != nil {
			return err
		}
		if prev != nil && less(node.Key(), prev.Key()) {
			return infra.WrapErrorStackWithMessage(ErrRBTreeOrderViolation,
				fmt.Sprintf("%v is ordered before %v", node.Key(), prev.Key()))
		}
		prev = node
		count++
		return walk(node.Right())
	}
	if err := walk(root); err != nil {
		return err
	}
	if count != tree.Len() {
		return infra.WrapErrorStackWithMessage(ErrRBTreeOrderViolation,
			fmt.Sprintf("%d nodes reachable, length %d", count, tree.Len()))
	}
	return nil
}

// Validate runs every validator and combines the violations.
func Validate[K, V any](tree RBTree[K, V]) error {
	return multierr.Combine(
		RedViolationValidate[K, V](tree),
		BlackViolationValidate[K, V](tree),
		ExtremesViolationValidate[K, V](tree),
		OrderViolationValidate[K, V](tree),
	)
}
