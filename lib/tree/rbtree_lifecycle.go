package tree

import (
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xstl/lib/alloc"
	"github.com/benz9527/xstl/lib/infra"
)

// createNode allocates and constructs a detached node. Nothing of the
// tree is touched, a failure gives the storage back.
func (tree *rbTree[K, V, X]) createNode(val V) (*rbNode[K, V, X], error) {
	node, err := tree.allocator.Allocate()
	if err != nil {
		if !errors.Is(err, alloc.ErrAllocationFailure) {
			err = multierr.Combine(alloc.ErrAllocationFailure, err)
		}
		tree.logger.Warn("rbtree node allocation failed", zap.Int64("len", tree.count), zap.Error(err))
		return nil, infra.WrapErrorStackWithMessage(err, "rbtree create node")
	}
	if err = tree.ctor.Construct(&node.val, val); err != nil {
		tree.allocator.Deallocate(node)
		if !errors.Is(err, alloc.ErrConstructionFailure) {
			err = multierr.Combine(alloc.ErrConstructionFailure, err)
		}
		tree.logger.Warn("rbtree node construction failed", zap.Int64("len", tree.count), zap.Error(err))
		return nil, infra.WrapErrorStackWithMessage(err, "rbtree create node")
	}
	node.hasVal = true
	return node, nil
}

func (tree *rbTree[K, V, X]) destroyNode(node *rbNode[K, V, X]) {
	tree.ctor.Destroy(&node.val)
	*node = rbNode[K, V, X]{}
	tree.allocator.Deallocate(node)
}

func (tree *rbTree[K, V, X]) cloneNode(src *rbNode[K, V, X]) (*rbNode[K, V, X], error) {
	node, err := tree.createNode(src.val)
	if err != nil {
		return nil, err
	}
	node.color = src.color
	return node, nil
}

// eraseSince destroys the subtree rooted at x without rebalancing.
func (tree *rbTree[K, V, X]) eraseSince(x *rbNode[K, V, X]) {
	for x != nil {
		tree.eraseSince(x.right)
		y := x.left
		tree.destroyNode(x)
		x = y
	}
}

// copySubtree clones the subtree rooted at x under p, keeping the shape
// and the colors. It recurses on the right children and loops down the
// left spine. On failure every node it cloned is destroyed.
func (tree *rbTree[K, V, X]) copySubtree(x, p *rbNode[K, V, X]) (*rbNode[K, V, X], error) {
	top, err := tree.cloneNode(x)
	if err != nil {
		return nil, err
	}
	top.parent = p

	if x.right != nil {
		if top.right, err = tree.copySubtree(x.right, top); err != nil {
			tree.eraseSince(top)
			return nil, err
		}
	}
	p, x = top, x.left
	for x != nil {
		y, err := tree.cloneNode(x)
		if err != nil {
			tree.eraseSince(top)
			return nil, err
		}
		p.left = y
		y.parent = p
		if x.right != nil {
			if y.right, err = tree.copySubtree(x.right, y); err != nil {
				tree.eraseSince(top)
				return nil, err
			}
		}
		p, x = y, x.left
	}
	return top, nil
}

// copyFrom expects an empty tree.
func (tree *rbTree[K, V, X]) copyFrom(src *rbTree[K, V, X]) error {
	tree.less = src.less
	if src.header.parent == nil {
		return nil
	}
	root, err := tree.copySubtree(src.header.parent, tree.header)
	if err != nil {
		tree.logger.Warn("rbtree clone unwound", zap.Int64("srcLen", src.count), zap.Error(err))
		return err
	}
	tree.header.parent = root
	tree.header.left = root.minimum()
	tree.header.right = root.maximum()
	tree.count = src.count
	tree.stats.AddNodes(tree.count)
	return nil
}

func (tree *rbTree[K, V, X]) compatible(other RBTree[K, V]) (*rbTree[K, V, X], error) {
	o, ok := other.(*rbTree[K, V, X])
	if !ok || o == nil {
		return nil, infra.WrapErrorStack(ErrRBTreeIncompatible)
	}
	o.mustAlive()
	return o, nil
}

func (tree *rbTree[K, V, X]) Clone() (RBTree[K, V], error) {
	tree.mustAlive()
	dst, err := buildRBTree[K, V, X](tree.less, tree.cfg())
	if err != nil {
		return nil, err
	}
	if err = dst.copyFrom(tree); err != nil {
		dst.Release()
		return nil, err
	}
	tree.logger.Debug("rbtree cloned", zap.Int64("len", dst.count))
	return dst, nil
}

// CopyFrom leaves the tree empty if the copy fails.
func (tree *rbTree[K, V, X]) CopyFrom(src RBTree[K, V]) error {
	tree.mustAlive()
	s, err := tree.compatible(src)
	if err != nil {
		return err
	}
	if s == tree {
		return nil
	}
	tree.Clear()
	return tree.copyFrom(s)
}

func (tree *rbTree[K, V, X]) MoveFrom(src RBTree[K, V]) error {
	tree.mustAlive()
	s, err := tree.compatible(src)
	if err != nil {
		return err
	}
	if s == tree {
		return nil
	}
	tree.Clear()
	// The node storage follows the nodes, src keeps the emptied one.
	tree.rbBody, s.rbBody = s.rbBody, tree.rbBody
	s.less = tree.less
	tree.stats.AddNodes(tree.count)
	s.stats.AddNodes(-tree.count)
	tree.logger.Debug("rbtree moved", zap.Int64("len", tree.count))
	return nil
}

func (tree *rbTree[K, V, X]) Move() RBTree[K, V] {
	tree.mustAlive()
	a, err := alloc.New[rbNode[K, V, X]](tree.allocOpts...)
	if err != nil {
		// The same options were accepted when the tree was built.
		tree.violation("rebuild node allocator on move: " + err.Error())
	}

	dst := &rbTree[K, V, X]{
		rbBody:    tree.rbBody,
		logger:    tree.logger,
		stats:     tree.stats,
		statsName: tree.statsName,
	}
	tree.rbBody = rbBody[K, V, X]{
		header:    &rbNode[K, V, X]{},
		less:      dst.less,
		allocator: a,
		allocOpts: dst.allocOpts,
		ctor:      dst.ctor,
	}
	tree.resetHeader()
	tree.logger.Debug("rbtree moved", zap.Int64("len", dst.count))
	return dst
}

func (tree *rbTree[K, V, X]) Swap(other RBTree[K, V]) error {
	tree.mustAlive()
	o, err := tree.compatible(other)
	if err != nil {
		return err
	}
	if o == tree {
		return nil
	}
	delta := o.count - tree.count
	tree.rbBody, o.rbBody = o.rbBody, tree.rbBody
	tree.stats.AddNodes(delta)
	o.stats.AddNodes(-delta)
	return nil
}

// Clear destroys every node in post-order, the header is kept.
func (tree *rbTree[K, V, X]) Clear() {
	tree.mustAlive()
	tree.eraseSince(tree.header.parent)
	tree.stats.AddNodes(-tree.count)
	tree.count = 0
	tree.resetHeader()
}

// Release of a released tree is a no-op.
func (tree *rbTree[K, V, X]) Release() {
	if tree.header == nil {
		return
	}
	n := tree.count
	tree.Clear()
	tree.allocator.Release()
	tree.header = nil
	tree.logger.Debug("rbtree released", zap.Int64("len", n))
}
