package tree

type rbNode[K, V any, X KeyOfValue[K, V]] struct {
	parent *rbNode[K, V, X]
	left   *rbNode[K, V, X]
	right  *rbNode[K, V, X]
	val    V
	color  RBColor
	hasVal bool // false only for the header
}

func (node *rbNode[K, V, X]) Key() K {
	var kov X
	return kov.Key(node.val)
}

func (node *rbNode[K, V, X]) Val() V {
	return node.val
}

func (node *rbNode[K, V, X]) Color() RBColor {
	return node.color
}

func (node *rbNode[K, V, X]) HasVal() bool {
	if node == nil {
		return false
	}
	return node.hasVal
}

func (node *rbNode[K, V, X]) Left() RBNode[K, V] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *rbNode[K, V, X]) Right() RBNode[K, V] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *rbNode[K, V, X]) Parent() RBNode[K, V] {
	if node == nil || node.parent == nil || node.parent.isHeader() {
		return nil
	}
	return node.parent
}

func (node *rbNode[K, V, X]) isHeader() bool {
	return node != nil && !node.hasVal
}

// The root's parent is the header.
func (node *rbNode[K, V, X]) isRoot() bool {
	return node != nil && node.hasVal && node.parent.isHeader()
}

func (node *rbNode[K, V, X]) isRed() bool {
	return node != nil && node.color == Red
}

// Absent children count as black.
func (node *rbNode[K, V, X]) isBlack() bool {
	return node == nil || node.color == Black
}

func (node *rbNode[K, V, X]) Direction() RBDirection {
	if node.isRoot() {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

func (node *rbNode[K, V, X]) minimum() *rbNode[K, V, X] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *rbNode[K, V, X]) maximum() *rbNode[K, V, X] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

// The succ node of the current node is its next node in sorted order.
// The succ of the rightmost node is the header.
func (node *rbNode[K, V, X]) succ() *rbNode[K, V, X] {
	x := node
	if x == nil || x.isHeader() {
		return x
	}
	if x.right != nil {
		return x.right.minimum()
	}

	aux := x.parent
	// Backtrack to the first ancestor that x hangs on the left of.
	for !aux.isHeader() && x == aux.right {
		x = aux
		aux = aux.parent
	}
	return aux
}

// The pred node of the current node is its previous node in sorted order.
// The pred of the header is the rightmost node, the pred of the leftmost
// node is the header.
func (node *rbNode[K, V, X]) pred() *rbNode[K, V, X] {
	x := node
	if x == nil {
		return nil
	}
	if x.isHeader() {
		return x.right
	}
	if x.left != nil {
		return x.left.maximum()
	}

	aux := x.parent
	for !aux.isHeader() && x == aux.left {
		x = aux
		aux = aux.parent
	}
	return aux
}
