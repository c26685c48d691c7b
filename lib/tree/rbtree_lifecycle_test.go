package tree

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xstl/lib/alloc"
	"github.com/benz9527/xstl/lib/infra"
	"github.com/benz9527/xstl/xlog"
)

var errFlaky = errors.New("flaky storage")

// countingAllocator fails every allocation from the failAt-th on.
type countingAllocator[T any] struct {
	allocated   int
	deallocated int
	failAt      int
	released    bool
}

func (a *countingAllocator[T]) Allocate() (*T, error) {
	if a.failAt > 0 && a.allocated+1 >= a.failAt {
		return nil, errFlaky
	}
	a.allocated++
	return new(T), nil
}

func (a *countingAllocator[T]) Deallocate(ptr *T) {
	a.deallocated++
}

func (a *countingAllocator[T]) Release() {
	a.released = true
}

// countingConstructor fails the failAt-th construction.
type countingConstructor struct {
	constructed int
	destroyed   int
	failAt      int
}

func (c *countingConstructor) Construct(dst *int, src int) error {
	if c.failAt > 0 && c.constructed+1 == c.failAt {
		return errFlaky
	}
	c.constructed++
	*dst = src
	return nil
}

func (c *countingConstructor) Destroy(dst *int) {
	c.destroyed++
	*dst = 0
}

func requireViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok, "expected a structural violation panic, got %v", r)
		require.ErrorIs(t, err, ErrRBTreeStructuralViolation)
	}()
	fn()
}

func TestRbtreeCopyIsolation(t *testing.T) {
	a := newIntTree(t)
	insertAll(t, a, 1, 2, 3)

	b, err := a.Clone()
	require.NoError(t, err)
	require.Equal(t, int64(1), b.EraseKey(2))

	require.Equal(t, []int{1, 2, 3}, treeKeys(a))
	require.Equal(t, []int{1, 3}, treeKeys(b))
	require.NoError(t, Validate[int, int](a))
	require.NoError(t, Validate[int, int](b))
}

func TestRbtreeCloneKeepsShape(t *testing.T) {
	src := newIntTree(t, WithRBTreeDesc())
	insertAll(t, src, 10, 20, 30, 15, 25, 5, 1, 7, 8, 9)

	dst, err := src.Clone()
	require.NoError(t, err)
	var walk func(x, y RBNode[int, int])
	walk = func(x, y RBNode[int, int]) {
		if x == nil {
			require.Nil(t, y)
			return
		}
		require.NotNil(t, y)
		require.NotSame(t, x, y)
		require.Equal(t, x.Key(), y.Key())
		require.Equal(t, x.Color(), y.Color())
		walk(x.Left(), y.Left())
		walk(x.Right(), y.Right())
	}
	walk(src.Root(), dst.Root())
	require.Equal(t, src.Len(), dst.Len())
	require.Equal(t, treeKeys(src), treeKeys(dst))
	require.Equal(t, 30, dst.Leftmost().Key())
	require.NoError(t, Validate[int, int](dst))

	// Copy assignment replaces the previous content.
	other := newIntTree(t)
	insertAll(t, other, 100, 200)
	require.NoError(t, other.CopyFrom(src))
	require.Equal(t, treeKeys(src), treeKeys(other))
	require.NoError(t, Validate[int, int](other))

	// Self copy.
	require.NoError(t, src.CopyFrom(src))
	require.Equal(t, int64(10), src.Len())
}

func TestRbtreeCloneUnwindOnConstructionFailure(t *testing.T) {
	ctor := &countingConstructor{}
	tree := newIntTree(t, WithRBTreeConstructor[int](ctor))
	for i := 0; i < 50; i++ {
		_, err := tree.Insert(i)
		require.NoError(t, err)
	}
	require.Equal(t, 50, ctor.constructed)

	ctor.failAt = 50 + 30
	_, err := tree.Clone()
	require.ErrorIs(t, err, alloc.ErrConstructionFailure)
	require.ErrorIs(t, err, errFlaky)
	// The 29 cloned elements are destroyed, the source is untouched.
	require.Equal(t, 79, ctor.constructed)
	require.Equal(t, 29, ctor.destroyed)
	require.Equal(t, int64(50), tree.Len())
	require.NoError(t, Validate[int, int](tree))

	ctor.failAt = 0
	tree.Clear()
	require.Equal(t, 79, ctor.destroyed)
}

func TestRbtreeCopyFromUnwindOnAllocationFailure(t *testing.T) {
	src := newIntTree(t)
	for i := 0; i < 64; i++ {
		_, err := src.Insert(i)
		require.NoError(t, err)
	}

	dst := newIntTree(t)
	storage := &countingAllocator[rbNode[int, int, SetMode[int]]]{}
	dst.allocator = storage
	insertAll(t, dst, 1000, 2000)

	// 39 elements are cloned before the failure.
	storage.failAt = 2 + 40
	err := dst.CopyFrom(src)
	require.ErrorIs(t, err, alloc.ErrAllocationFailure)
	require.ErrorIs(t, err, errFlaky)
	require.Equal(t, 2+39, storage.allocated)
	require.Equal(t, storage.allocated, storage.deallocated)
	require.True(t, dst.IsEmpty())
	require.NoError(t, Validate[int, int](dst))
	require.Equal(t, int64(64), src.Len())

	// The tree is still usable after the failure.
	storage.failAt = 0
	require.NoError(t, dst.CopyFrom(src))
	require.Equal(t, treeKeys(src), treeKeys(dst))
}

func TestRbtreeInsertFailureLeavesTreeUnchanged(t *testing.T) {
	tree := newIntTree(t, WithRBTreeAllocator(alloc.WithMaxObjects(3)))
	insertAll(t, tree, 2, 1, 3)
	shape := tree.Root()

	_, err := tree.Insert(4)
	require.ErrorIs(t, err, alloc.ErrAllocationFailure)
	_, ok, err := tree.InsertUnique(0)
	require.ErrorIs(t, err, alloc.ErrAllocationFailure)
	require.False(t, ok)
	require.Equal(t, []int{1, 2, 3}, treeKeys(tree))
	require.Equal(t, shape, tree.Root())
	require.NoError(t, Validate[int, int](tree))

	// Storage of erased elements is reusable.
	require.Equal(t, int64(1), tree.EraseKey(1))
	insertAll(t, tree, 4)
	require.Equal(t, []int{2, 3, 4}, treeKeys(tree))

	negative := errors.New("negative")
	tree = newIntTree(t, WithRBTreeConstructor[int](alloc.ConstructorFunc[int](
		func(dst *int, src int) error {
			if src < 0 {
				return negative
			}
			*dst = src
			return nil
		}, nil,
	)))
	storage := &countingAllocator[rbNode[int, int, SetMode[int]]]{}
	tree.allocator = storage
	insertAll(t, tree, 1, 2)
	_, err = tree.Insert(-1)
	require.ErrorIs(t, err, alloc.ErrConstructionFailure)
	require.ErrorIs(t, err, negative)
	// The storage of the unconstructed node is given back.
	require.Equal(t, 3, storage.allocated)
	require.Equal(t, 1, storage.deallocated)
	require.Equal(t, []int{1, 2}, treeKeys(tree))
	require.NoError(t, Validate[int, int](tree))
	tree.Clear()
	require.Equal(t, storage.allocated, storage.deallocated)
}

func TestRbtreeEraseForeignIterator(t *testing.T) {
	a := newIntTree(t)
	insertAll(t, a, 1, 2, 3)
	b := newIntTree(t)
	insertAll(t, b, 42)

	require.True(t, a.Erase(b.Find(42)).IsEnd())
	require.True(t, a.EraseRange(b.Find(42), b.End()).IsEnd())
	require.ErrorIs(t, a.Replace(b.Find(42), 42), ErrRBTreeInvalidIterator)

	require.Equal(t, int64(3), a.Len())
	require.Equal(t, []int{1, 2, 3}, treeKeys(a))
	require.NoError(t, Validate[int, int](a))
	require.Equal(t, int64(1), b.Len())
	require.Equal(t, 42, b.Root().Key())
	require.NoError(t, Validate[int, int](b))

	// An inner node of another tree is refused too.
	insertAll(t, b, 40, 44, 41)
	require.True(t, a.Erase(b.Find(41)).IsEnd())
	require.Equal(t, []int{1, 2, 3}, treeKeys(a))
	require.Equal(t, []int{40, 41, 42, 44}, treeKeys(b))
	require.NoError(t, Validate[int, int](a))
	require.NoError(t, Validate[int, int](b))
}

func TestRbtreeMoveAndSwap(t *testing.T) {
	a := newIntTree(t)
	insertAll(t, a, 1, 2, 3)
	b := newIntTree(t)
	insertAll(t, b, 10, 20)

	it := a.Find(2)
	require.NoError(t, b.MoveFrom(a))
	require.Equal(t, []int{1, 2, 3}, treeKeys(b))
	require.True(t, a.IsEmpty())
	require.NoError(t, Validate[int, int](a))
	require.NoError(t, Validate[int, int](b))
	// Iterators follow the moved nodes.
	require.True(t, it.Equal(b.Find(2)))

	// The source stays usable.
	insertAll(t, a, 7, 8)
	require.Equal(t, []int{7, 8}, treeKeys(a))

	require.NoError(t, a.Swap(b))
	require.Equal(t, []int{1, 2, 3}, treeKeys(a))
	require.Equal(t, []int{7, 8}, treeKeys(b))
	require.NoError(t, a.Swap(a))
	require.NoError(t, a.MoveFrom(a))
	require.Equal(t, int64(3), a.Len())

	c := a.Move()
	require.Equal(t, []int{1, 2, 3}, treeKeys(c))
	require.True(t, a.IsEmpty())
	insertAll(t, a, 5)
	require.Equal(t, []int{5}, treeKeys(a))
	require.NoError(t, Validate[int, int](c))
}

func TestRbtreeIncompatible(t *testing.T) {
	a := newIntTree(t)
	other, err := NewRBTree[int, int, reverseMode](infra.OrderedLess[int])
	require.NoError(t, err)

	require.ErrorIs(t, a.CopyFrom(other), ErrRBTreeIncompatible)
	require.ErrorIs(t, a.MoveFrom(other), ErrRBTreeIncompatible)
	require.ErrorIs(t, a.Swap(other), ErrRBTreeIncompatible)
	require.ErrorIs(t, a.Swap(nil), ErrRBTreeIncompatible)
}

type reverseMode struct{}

func (reverseMode) Key(val int) int {
	return -val
}

func TestRbtreeKeyOfValue(t *testing.T) {
	tree, err := NewRBTree[int, int, reverseMode](infra.OrderedLess[int])
	require.NoError(t, err)
	insertAll(t, tree, 1, 2, 3)
	require.Equal(t, []int{3, 2, 1}, treeKeys(tree))
	require.Equal(t, 3, tree.Find(-3).Val())
	require.Equal(t, -3, tree.Begin().Key())
}

func TestRbtreeClearAndRelease(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := xlog.NewXLogger(
		xlog.WithXLoggerWriter(buf),
		xlog.WithXLoggerEncoder(xlog.JSON),
		xlog.WithXLoggerLevel(xlog.LogLevelDebug),
	)
	storage := &countingAllocator[rbNode[int, int, SetMode[int]]]{}
	tree := newIntTree(t, WithRBTreeLogger(logger))
	tree.allocator = storage

	insertAll(t, tree, 5, 3, 8, 1)
	tree.Clear()
	require.True(t, tree.IsEmpty())
	require.Equal(t, 4, storage.deallocated)
	require.True(t, tree.Begin().IsEnd())
	require.NoError(t, Validate[int, int](tree))

	insertAll(t, tree, 9, 4)
	tree.Release()
	require.True(t, storage.released)
	require.Equal(t, 6, storage.deallocated)
	tree.Release()

	requireViolation(t, func() {
		_ = tree.Len()
	})
	requireViolation(t, func() {
		_, _ = tree.Insert(1)
	})
	requireViolation(t, func() {
		_ = tree.Begin()
	})
	require.Contains(t, buf.String(), "rbtree structural violation")
	require.Contains(t, buf.String(), "rbtree released")
}

func TestRbtreeRotateViolation(t *testing.T) {
	tree := newIntTree(t)
	insertAll(t, tree, 1)
	root := tree.header.parent
	requireViolation(t, func() {
		tree.leftRotate(root)
	})
	requireViolation(t, func() {
		tree.rightRotate(root)
	})
	requireViolation(t, func() {
		tree.leftRotate(tree.header)
	})
}
