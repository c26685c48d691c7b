package tree

import (
	"go.uber.org/zap"

	"github.com/benz9527/xstl/lib/alloc"
	"github.com/benz9527/xstl/lib/infra"
	"github.com/benz9527/xstl/xlog"
)

var (
	_ RBTree[int, int]                    = (*rbTree[int, int, SetMode[int]])(nil)
	_ RBTree[int, Pair[int, string]]      = (*rbTree[int, Pair[int, string], MapMode[int, string]])(nil)
	_ RBNode[int, int]                    = (*rbNode[int, int, SetMode[int]])(nil)
	_ iterNode[string, Pair[string, int]] = (*rbNode[string, Pair[string, int], MapMode[string, int]])(nil)
)

// rbBody is everything that follows the nodes on move and swap.
type rbBody[K, V any, X KeyOfValue[K, V]] struct {
	// header.parent is the root, header.left the leftmost node and
	// header.right the rightmost node. Both extremes are the header
	// itself if the tree is empty.
	header    *rbNode[K, V, X]
	count     int64
	less      infra.LessFunc[K]
	allocator alloc.Allocator[rbNode[K, V, X]]
	allocOpts []alloc.Option
	ctor      alloc.Constructor[V]
}

type rbTree[K, V any, X KeyOfValue[K, V]] struct {
	rbBody[K, V, X]
	logger    xlog.XLogger
	stats     *rbtreeStats
	statsName string
}

func (tree *rbTree[K, V, X]) violation(msg string) {
	err := infra.WrapErrorStackWithMessage(ErrRBTreeStructuralViolation, msg)
	tree.logger.ErrorStack(err, "rbtree structural violation")
	panic(err)
}

func (tree *rbTree[K, V, X]) mustAlive() {
	if tree.header == nil {
		tree.violation("rbtree used after release")
	}
}

func (tree *rbTree[K, V, X]) resetHeader() {
	tree.header.parent = nil
	tree.header.left = tree.header
	tree.header.right = tree.header
	tree.header.color = Black
	tree.header.hasVal = false
}

func (tree *rbTree[K, V, X]) iter(node *rbNode[K, V, X]) Iterator[K, V] {
	return Iterator[K, V]{node: node, less: tree.less}
}

// nodeOf returns nil for End, erased and foreign iterators.
func (tree *rbTree[K, V, X]) nodeOf(it Iterator[K, V]) *rbNode[K, V, X] {
	if it.node == nil {
		return nil
	}
	node, ok := it.node.(*rbNode[K, V, X])
	if !ok || node.isHeader() {
		return nil
	}
	// The root's parent is the header of the owning tree.
	aux := node
	for aux != nil && !aux.isHeader() {
		aux = aux.parent
	}
	if aux != tree.header {
		return nil
	}
	return node
}

func (tree *rbTree[K, V, X]) Len() int64 {
	tree.mustAlive()
	return tree.count
}

func (tree *rbTree[K, V, X]) IsEmpty() bool {
	return tree.Len() == 0
}

func (tree *rbTree[K, V, X]) Less() infra.LessFunc[K] {
	return tree.less
}

func (tree *rbTree[K, V, X]) Root() RBNode[K, V] {
	tree.mustAlive()
	if tree.header.parent == nil {
		return nil
	}
	return tree.header.parent
}

func (tree *rbTree[K, V, X]) Leftmost() RBNode[K, V] {
	tree.mustAlive()
	if tree.header.left.isHeader() {
		return nil
	}
	return tree.header.left
}

func (tree *rbTree[K, V, X]) Rightmost() RBNode[K, V] {
	tree.mustAlive()
	if tree.header.right.isHeader() {
		return nil
	}
	return tree.header.right
}

func (tree *rbTree[K, V, X]) Begin() Iterator[K, V] {
	tree.mustAlive()
	return tree.iter(tree.header.left)
}

func (tree *rbTree[K, V, X]) End() Iterator[K, V] {
	tree.mustAlive()
	return tree.iter(tree.header)
}

func (tree *rbTree[K, V, X]) RBegin() Iterator[K, V] {
	tree.mustAlive()
	return tree.iter(tree.header.right)
}

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.

/*
		 |                         |
		 X                         Y
		/ \     leftRotate(X)     / \
	   L   Y    ============>    X   Yr
		  / \                   / \
		Yl   Yr                L   Yl
*/
func (tree *rbTree[K, V, X]) leftRotate(x *rbNode[K, V, X]) {
	if x == nil || x.isHeader() || x.right == nil {
		tree.violation("left rotate without right child")
	}

	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent

	switch x.Direction() {
	case Root:
		tree.header.parent = y
	case Left:
		x.parent.left = y
	case Right:
		x.parent.right = y
	default:
	}
	y.left = x
	x.parent = y
	tree.stats.IncreaseRotations(Left)
}

/*
			 |                         |
			 Y                         X
			/ \     rightRotate(X)    / \
	       Yl  X    <============    Y   R
			  / \                   / \
			Yr   R                Yl   Yr
*/
func (tree *rbTree[K, V, X]) rightRotate(x *rbNode[K, V, X]) {
	if x == nil || x.isHeader() || x.left == nil {
		tree.violation("right rotate without left child")
	}

	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent

	switch x.Direction() {
	case Root:
		tree.header.parent = y
	case Left:
		x.parent.left = y
	case Right:
		x.parent.right = y
	default:
	}
	y.right = x
	x.parent = y
	tree.stats.IncreaseRotations(Right)
}

// Insert never overwrites. An element with an equivalent key already in
// the tree stays in front of the new one.
func (tree *rbTree[K, V, X]) Insert(val V) (Iterator[K, V], error) {
	tree.mustAlive()
	z, err := tree.createNode(val)
	if err != nil {
		return tree.End(), err
	}

	k := z.Key()
	y, x := tree.header, tree.header.parent
	for x != nil {
		y = x
		if tree.less(k, x.Key()) {
			x = x.left
		} else /* equal goes right */ {
			x = x.right
		}
	}
	tree.attach(z, y, y == tree.header || tree.less(k, y.Key()))
	return tree.iter(z), nil
}

func (tree *rbTree[K, V, X]) InsertUnique(val V) (Iterator[K, V], bool, error) {
	tree.mustAlive()
	var kov X
	k := kov.Key(val)

	y, x := tree.header, tree.header.parent
	insertLeft := true
	for x != nil {
		y = x
		insertLeft = tree.less(k, x.Key())
		if insertLeft {
			x = x.left
		} else {
			x = x.right
		}
	}

	// j is the greatest element not ordered after k, if any.
	j := y
	if insertLeft {
		if y == tree.header.left {
			j = nil
		} else {
			j = y.pred()
		}
	}
	if j != nil && !tree.less(j.Key(), k) {
		return tree.iter(j), false, nil
	}

	z, err := tree.createNode(val)
	if err != nil {
		return tree.End(), false, err
	}
	tree.attach(z, y, y == tree.header || tree.less(k, y.Key()))
	return tree.iter(z), true, nil
}

// attach links the red node z under y then restores the invariants.
func (tree *rbTree[K, V, X]) attach(z, y *rbNode[K, V, X], insertLeft bool) {
	z.parent = y
	z.left, z.right = nil, nil
	z.color = Red
	if insertLeft {
		// For an empty tree this also sets the leftmost node.
		y.left = z
		if y == tree.header {
			tree.header.parent = z
			tree.header.right = z
		} else if y == tree.header.left {
			tree.header.left = z
		}
	} else {
		y.right = z
		if y == tree.header.right {
			tree.header.right = z
		}
	}
	tree.insertRebalance(z)
	tree.count++
	tree.stats.AddNodes(1)
}

/*
New node Z is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).

im1: Z is the root, or Z's parent P is black. Nothing to fix but the
root is painted black at last.

im2: Both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Continue to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<Z>             <Z>

im3: The parent P is red but the uncle U is black. (red-violation)
Z is the inner child. Rotate P to the opposite direction, P becomes
the outer child to fix in im4.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <Z> [U]
	  \                 /
	  <Z>             <P>

im4: Z is the outer child.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <Z> [G]  ======>  <Z> <G>
	  /                         \                 \
	<Z>                         [U]               [U]
*/
func (tree *rbTree[K, V, X]) insertRebalance(z *rbNode[K, V, X]) {
	if !z.isRoot() && z.parent.isRed() {
		tree.stats.IncreaseInsertRebalance()
	}

	for !z.isRoot() && z.parent.isRed() {
		// A red parent is never the root, so the grandpa is a real node.
		xp := z.parent
		g := xp.parent
		if xp == g.left {
			if u := g.right; /* im2 */ u.isRed() {
				xp.color = Black
				u.color = Black
				g.color = Red
				z = g
				continue
			}
			if /* im3 */ z == xp.right {
				z = xp
				tree.leftRotate(z)
				xp = z.parent
			}
			/* im4 */
			xp.color = Black
			g.color = Red
			tree.rightRotate(g)
		} else {
			if u := g.left; /* im2 */ u.isRed() {
				xp.color = Black
				u.color = Black
				g.color = Red
				z = g
				continue
			}
			if /* im3 */ z == xp.left {
				z = xp
				tree.rightRotate(z)
				xp = z.parent
			}
			/* im4 */
			xp.color = Black
			g.color = Red
			tree.leftRotate(g)
		}
	}
	tree.header.parent.color = Black
}

// Replace assigns val to the element without calling the constructor.
func (tree *rbTree[K, V, X]) Replace(it Iterator[K, V], val V) error {
	tree.mustAlive()
	node := tree.nodeOf(it)
	if node == nil {
		return infra.WrapErrorStackWithMessage(ErrRBTreeInvalidIterator, "replace")
	}
	return tree.iter(node).SetVal(val)
}

// Erase of End is a no-op.
func (tree *rbTree[K, V, X]) Erase(it Iterator[K, V]) Iterator[K, V] {
	tree.mustAlive()
	z := tree.nodeOf(it)
	if z == nil {
		return tree.End()
	}
	next := z.succ()
	tree.eraseNode(z)
	return tree.iter(next)
}

func (tree *rbTree[K, V, X]) EraseRange(first, last Iterator[K, V]) Iterator[K, V] {
	tree.mustAlive()
	if first.Equal(tree.Begin()) && last.IsEnd() {
		tree.Clear()
		return tree.End()
	}
	for !first.Equal(last) && !first.IsEnd() {
		first = tree.Erase(first)
	}
	return first
}

func (tree *rbTree[K, V, X]) EraseKey(key K) int64 {
	first, last := tree.EqualRange(key)
	n := int64(0)
	for it := first; !it.Equal(last); it = it.Next() {
		n++
	}
	tree.EraseRange(first, last)
	return n
}

func (tree *rbTree[K, V, X]) PopMin() (V, bool) {
	tree.mustAlive()
	if tree.count == 0 {
		var v V
		return v, false
	}
	z := tree.header.left
	v := z.val
	tree.eraseNode(z)
	return v, true
}

func (tree *rbTree[K, V, X]) PopMax() (V, bool) {
	tree.mustAlive()
	if tree.count == 0 {
		var v V
		return v, false
	}
	z := tree.header.right
	v := z.val
	tree.eraseNode(z)
	return v, true
}

func (tree *rbTree[K, V, X]) eraseNode(z *rbNode[K, V, X]) {
	tree.unlinkAndRebalance(z)
	tree.destroyNode(z)
	tree.count--
	tree.stats.AddNodes(-1)
}

func (tree *rbTree[K, V, X]) replaceChild(old, node *rbNode[K, V, X]) {
	switch old.Direction() {
	case Root:
		tree.header.parent = node
	case Left:
		old.parent.left = node
	case Right:
		old.parent.right = node
	default:
	}
}

/*
r1: Z has at most one child X. X takes the place of Z.

	  |              |
	  Z              X
	 /    ======>
	X

r2: Z has two children. Its successor Y (the minimum of the right
subtree, without left child) takes the place and the color of Z.
Y's right child X takes the old place of Y. Nodes are relinked instead
of swapping values, so iterators to other elements stay valid.

	  |                    |
	  Z                    Y
	 / \                  / \
	L   R    ======>     L   R
	   /                    /
	  Y                    X
	   \
	    X

If the removed color (Z's in r1, Y's in r2) is black, X carries an extra
black to push up in removeRebalance.
*/
func (tree *rbTree[K, V, X]) unlinkAndRebalance(z *rbNode[K, V, X]) {
	header := tree.header
	y := z
	var x, xp *rbNode[K, V, X]
	if z.left == nil {
		x = z.right
	} else if z.right == nil {
		x = z.left
	} else {
		y = z.right.minimum()
		x = y.right
	}
	removed := y.color

	if /* r2 */ y != z {
		z.left.parent = y
		y.left = z.left
		if y != z.right {
			xp = y.parent
			if x != nil {
				x.parent = y.parent
			}
			y.parent.left = x
			y.right = z.right
			z.right.parent = y
		} else {
			xp = y
		}
		tree.replaceChild(z, y)
		y.parent = z.parent
		y.color = z.color
	} else /* r1 */ {
		xp = z.parent
		if x != nil {
			x.parent = z.parent
		}
		tree.replaceChild(z, x)
		if header.left == z {
			if z.right == nil {
				// z.parent is the header if z was the last node.
				header.left = z.parent
			} else {
				header.left = x.minimum()
			}
		}
		if header.right == z {
			if z.left == nil {
				header.right = z.parent
			} else {
				header.right = x.maximum()
			}
		}
	}

	if removed == Black {
		tree.removeRebalance(x, xp)
	}
}

/*
X carries an extra black, W is its sibling, P the parent.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

rm1: X is red (or the root), paint it black and stop.

rm2: W is red. Rotate P towards X, W becomes the grandpa, X gets a
black sibling to enter rm3-rm5.

	  [P]                   [W]
	  / \    rotate(P)      / \
	[X] <W>  ========>    <P> [Wr]
	    / \               / \
	 [Wl] [Wr]          [X] [Wl]

rm3: W is black and both of its children are black. Paint W red, the
extra black moves up to P.

	  {P}               {P}
	  / \               / \
	[X] [W]  ====>    [X] <W>
	    / \               / \
	 [Wl] [Wr]         [Wl] [Wr]

rm4: W is black, the near nephew Wl is red and the far one Wr black.
Rotate W away from X to enter rm5.

	  {P}                 {P}
	  / \    rotate(W)    / \
	[X] [W]  ========>  [X] [Wl]
	    / \                   \
	  <Wl> [Wr]               <W>
	                            \
	                            [Wr]

rm5: W is black and the far nephew Wr is red. Rotate P towards X, W
takes the color of P, P and Wr are painted black. The extra black is
absorbed.

	  {P}                 {W}
	  / \    rotate(P)    / \
	[X] [W]  ========>  [P] [Wr]
	    / \             / \
	 {Wl} <Wr>        [X] {Wl}
*/
func (tree *rbTree[K, V, X]) removeRebalance(x, xp *rbNode[K, V, X]) {
	if x != tree.header.parent && x.isBlack() {
		tree.stats.IncreaseEraseRebalance()
	}

	for x != tree.header.parent && x.isBlack() {
		if x == xp.left {
			w := xp.right
			if w == nil {
				tree.violation("erase fixup without sibling")
			}
			if /* rm2 */ w.isRed() {
				w.color = Black
				xp.color = Red
				tree.leftRotate(xp)
				w = xp.right
			}
			if /* rm3 */ w.left.isBlack() && w.right.isBlack() {
				w.color = Red
				x = xp
				xp = xp.parent
				continue
			}
			if /* rm4 */ w.right.isBlack() {
				w.left.color = Black
				w.color = Red
				tree.rightRotate(w)
				w = xp.right
			}
			/* rm5 */
			w.color = xp.color
			xp.color = Black
			w.right.color = Black
			tree.leftRotate(xp)
			break
		}

		w := xp.left
		if w == nil {
			tree.violation("erase fixup without sibling")
		}
		if /* rm2 */ w.isRed() {
			w.color = Black
			xp.color = Red
			tree.rightRotate(xp)
			w = xp.left
		}
		if /* rm3 */ w.right.isBlack() && w.left.isBlack() {
			w.color = Red
			x = xp
			xp = xp.parent
			continue
		}
		if /* rm4 */ w.left.isBlack() {
			w.right.color = Black
			w.color = Red
			tree.leftRotate(w)
			w = xp.left
		}
		/* rm5 */
		w.color = xp.color
		xp.color = Black
		w.left.color = Black
		tree.rightRotate(xp)
		break
	}
	/* rm1 */
	if x != nil {
		x.color = Black
	}
}

func (tree *rbTree[K, V, X]) lowerBound(key K) *rbNode[K, V, X] {
	y, x := tree.header, tree.header.parent
	for x != nil {
		if !tree.less(x.Key(), key) {
			y = x
			x = x.left
		} else {
			x = x.right
		}
	}
	return y
}

func (tree *rbTree[K, V, X]) upperBound(key K) *rbNode[K, V, X] {
	y, x := tree.header, tree.header.parent
	for x != nil {
		if tree.less(key, x.Key()) {
			y = x
			x = x.left
		} else {
			x = x.right
		}
	}
	return y
}

// Find returns the first element with an equivalent key, End if absent.
func (tree *rbTree[K, V, X]) Find(key K) Iterator[K, V] {
	tree.mustAlive()
	j := tree.lowerBound(key)
	if j == tree.header || tree.less(key, j.Key()) {
		return tree.End()
	}
	return tree.iter(j)
}

func (tree *rbTree[K, V, X]) Contains(key K) bool {
	return !tree.Find(key).IsEnd()
}

func (tree *rbTree[K, V, X]) Count(key K) int64 {
	first, last := tree.EqualRange(key)
	n := int64(0)
	for it := first; !it.Equal(last); it = it.Next() {
		n++
	}
	return n
}

func (tree *rbTree[K, V, X]) LowerBound(key K) Iterator[K, V] {
	tree.mustAlive()
	return tree.iter(tree.lowerBound(key))
}

func (tree *rbTree[K, V, X]) UpperBound(key K) Iterator[K, V] {
	tree.mustAlive()
	return tree.iter(tree.upperBound(key))
}

func (tree *rbTree[K, V, X]) EqualRange(key K) (Iterator[K, V], Iterator[K, V]) {
	tree.mustAlive()
	return tree.iter(tree.lowerBound(key)), tree.iter(tree.upperBound(key))
}

// Inorder traversal by the successor links.
func (tree *rbTree[K, V, X]) Foreach(action func(idx int64, color RBColor, val V) bool) {
	tree.mustAlive()
	idx := int64(0)
	for aux := tree.header.left; !aux.isHeader(); aux = aux.succ() {
		if !action(idx, aux.color, aux.val) {
			return
		}
		idx++
	}
}

func (tree *rbTree[K, V, X]) ReverseForeach(action func(idx int64, color RBColor, val V) bool) {
	tree.mustAlive()
	idx := int64(0)
	for aux := tree.header.right; !aux.isHeader(); aux = aux.pred() {
		if !action(idx, aux.color, aux.val) {
			return
		}
		idx++
	}
}

func newRBTree[K, V any, X KeyOfValue[K, V]](less infra.LessFunc[K], opts ...RBTreeOpt) (*rbTree[K, V, X], error) {
	if less == nil {
		return nil, infra.WrapErrorStack(ErrRBTreeNilComparator)
	}
	cfg, err := loadRBTreeCfg(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.isDesc {
		less = less.Reverse()
	}
	cfg.logger = cfg.logger.Named("rbtree")
	return buildRBTree[K, V, X](less, cfg)
}

func buildRBTree[K, V any, X KeyOfValue[K, V]](less infra.LessFunc[K], cfg *rbTreeCfg) (*rbTree[K, V, X], error) {
	ctor := alloc.CopyConstructor[V]()
	if cfg.ctor != nil {
		c, ok := cfg.ctor.(alloc.Constructor[V])
		if !ok {
			return nil, infra.WrapErrorStackWithMessage(ErrRBTreeInvalidOption, "constructor value type mismatch")
		}
		ctor = c
	}

	a, err := alloc.New[rbNode[K, V, X]](cfg.allocOpts...)
	if err != nil {
		return nil, err
	}

	tree := &rbTree[K, V, X]{
		rbBody: rbBody[K, V, X]{
			header:    &rbNode[K, V, X]{},
			less:      less,
			allocator: a,
			allocOpts: cfg.allocOpts,
			ctor:      ctor,
		},
		logger:    cfg.logger,
		statsName: cfg.statsName,
	}
	if len(cfg.statsName) > 0 {
		tree.stats = newRBTreeStats(cfg.statsName)
	}
	tree.resetHeader()
	tree.logger.Debug("rbtree created", zap.String("stats", cfg.statsName))
	return tree, nil
}

// NewRBTree builds an empty tree ordered by less. X extracts the key from
// the stored value.
func NewRBTree[K, V any, X KeyOfValue[K, V]](less infra.LessFunc[K], opts ...RBTreeOpt) (RBTree[K, V], error) {
	tree, err := newRBTree[K, V, X](less, opts...)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func NewSetRBTree[K any](less infra.LessFunc[K], opts ...RBTreeOpt) (RBTree[K, K], error) {
	return NewRBTree[K, K, SetMode[K]](less, opts...)
}

func NewMapRBTree[K, M any](less infra.LessFunc[K], opts ...RBTreeOpt) (RBTree[K, Pair[K, M]], error) {
	return NewRBTree[K, Pair[K, M], MapMode[K, M]](less, opts...)
}
