package tree

import (
	randv2 "math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xstl/lib/alloc"
	"github.com/benz9527/xstl/lib/infra"
)

type checkData struct {
	color RBColor
	key   int
}

func newIntTree(t *testing.T, opts ...RBTreeOpt) *rbTree[int, int, SetMode[int]] {
	tree, err := newRBTree[int, int, SetMode[int]](infra.OrderedLess[int], opts...)
	require.NoError(t, err)
	return tree
}

func requireTree(t *testing.T, tree RBTree[int, int], expected []checkData) {
	t.Helper()
	require.Equal(t, int64(len(expected)), tree.Len())
	tree.Foreach(func(idx int64, color RBColor, val int) bool {
		require.Equal(t, expected[idx].color, color, "idx %d", idx)
		require.Equal(t, expected[idx].key, val, "idx %d", idx)
		return true
	})
	require.NoError(t, Validate[int, int](tree))
}

func treeKeys(tree RBTree[int, int]) []int {
	keys := make([]int, 0, tree.Len())
	tree.Foreach(func(idx int64, color RBColor, val int) bool {
		keys = append(keys, val)
		return true
	})
	return keys
}

func insertAll(t *testing.T, tree RBTree[int, int], keys ...int) {
	t.Helper()
	for _, k := range keys {
		_, err := tree.Insert(k)
		require.NoError(t, err)
		require.NoError(t, Validate[int, int](tree))
	}
}

func TestNilNode(t *testing.T) {
	var nilNode RBNode[int, int] = nil
	require.True(t, nilNode == nil)

	var nilNode2 *rbNode[int, int, SetMode[int]] = nil
	nilNode = nilNode2
	require.True(t, nilNode != nil)
	require.Nil(t, nilNode)
	require.False(t, nilNode.HasVal())
	require.Nil(t, nilNode.Left())
	require.Nil(t, nilNode.Right())
	require.Nil(t, nilNode.Parent())
}

func TestNewRBTree(t *testing.T) {
	_, err := NewSetRBTree[int](nil)
	require.ErrorIs(t, err, ErrRBTreeNilComparator)

	tree, err := NewSetRBTree[int](infra.OrderedLess[int])
	require.NoError(t, err)
	require.True(t, tree.IsEmpty())
	require.Nil(t, tree.Root())
	require.Nil(t, tree.Leftmost())
	require.Nil(t, tree.Rightmost())
	require.True(t, tree.Begin().IsEnd())
	require.True(t, tree.Begin().Equal(tree.End()))
	require.True(t, tree.RBegin().IsEnd())
	require.NoError(t, Validate[int, int](tree))

	_, err = NewSetRBTree[int](infra.OrderedLess[int], WithRBTreeStats(" "), WithRBTreeLogger(nil))
	require.ErrorIs(t, err, ErrRBTreeInvalidOption)

	_, err = NewSetRBTree[int](infra.OrderedLess[int], WithRBTreeConstructor[string](nil))
	require.ErrorIs(t, err, ErrRBTreeInvalidOption)

	// Constructor of another value type.
	_, err = NewMapRBTree[int, string](infra.OrderedLess[int],
		WithRBTreeConstructor[int](alloc.CopyConstructor[int]()),
	)
	require.ErrorIs(t, err, ErrRBTreeInvalidOption)
}

func TestRbtreeLeftAndRightRotate(t *testing.T) {
	tree := newIntTree(t)

	insertAll(t, tree, 52)
	requireTree(t, tree, []checkData{
		{Black, 52},
	})

	insertAll(t, tree, 47)
	requireTree(t, tree, []checkData{
		{Red, 47}, {Black, 52},
	})

	insertAll(t, tree, 3)
	requireTree(t, tree, []checkData{
		{Red, 3}, {Black, 47}, {Red, 52},
	})

	insertAll(t, tree, 35)
	requireTree(t, tree, []checkData{
		{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52},
	})

	insertAll(t, tree, 24)
	requireTree(t, tree, []checkData{
		{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52},
	})
	require.Equal(t, 47, tree.Root().Key())

	// remove

	require.Equal(t, int64(1), tree.EraseKey(24))
	requireTree(t, tree, []checkData{
		{Red, 3}, {Black, 35}, {Black, 47}, {Black, 52},
	})

	require.Equal(t, int64(1), tree.EraseKey(47))
	requireTree(t, tree, []checkData{
		{Black, 3}, {Black, 35}, {Black, 52},
	})
	require.Equal(t, 35, tree.Root().Key())

	require.Equal(t, int64(1), tree.EraseKey(3))
	requireTree(t, tree, []checkData{
		{Black, 35}, {Red, 52},
	})

	require.Equal(t, int64(1), tree.EraseKey(35))
	requireTree(t, tree, []checkData{
		{Black, 52},
	})
	require.Equal(t, 52, tree.Leftmost().Key())
	require.Equal(t, 52, tree.Rightmost().Key())

	require.Equal(t, int64(0), tree.EraseKey(35))
	require.Equal(t, int64(1), tree.EraseKey(52))
	requireTree(t, tree, []checkData{})
	require.Nil(t, tree.Root())
	require.True(t, tree.Begin().IsEnd())
}

func TestRbtreeInsertScenario(t *testing.T) {
	tree := newIntTree(t)
	insertAll(t, tree, 10, 20, 30, 15, 25, 5, 1)

	requireTree(t, tree, []checkData{
		{Red, 1}, {Black, 5}, {Red, 10}, {Black, 15}, {Black, 20}, {Red, 25}, {Black, 30},
	})
	require.Equal(t, 20, tree.Root().Key())
	require.Equal(t, 1, tree.Leftmost().Key())
	require.Equal(t, 30, tree.Rightmost().Key())
}

func TestRbtreeEraseRootWithTwoChildren(t *testing.T) {
	tree := newIntTree(t)
	insertAll(t, tree, 10, 20, 30, 15, 25, 5, 1)

	root := tree.Root()
	require.NotNil(t, root.Left())
	require.NotNil(t, root.Right())
	succ := tree.Find(root.Key()).Next()
	require.Equal(t, 25, succ.Key())

	next := tree.Erase(tree.Find(20))
	require.True(t, next.Equal(succ))
	// The successor node itself takes the place of the root.
	require.Equal(t, succ.Node(), tree.Root())
	requireTree(t, tree, []checkData{
		{Red, 1}, {Black, 5}, {Red, 10}, {Black, 15}, {Black, 25}, {Black, 30},
	})
}

func TestRbtreeEraseBlackLeafWithRedSibling(t *testing.T) {
	// Five nodes at least: a black leaf with a red sibling needs two black
	// nephews under that sibling to keep the black height.
	tree := newIntTree(t)
	insertAll(t, tree, 10, 5, 20, 15, 30, 40)
	require.Equal(t, int64(1), tree.EraseKey(40))

	//      [10]
	//      /  \
	//    [5]  <20>
	//         /  \
	//      [15]  [30]
	requireTree(t, tree, []checkData{
		{Black, 5}, {Black, 10}, {Black, 15}, {Red, 20}, {Black, 30},
	})
	leaf := tree.Find(5).Node()
	require.Nil(t, leaf.Left())
	require.Nil(t, leaf.Right())
	require.Equal(t, Red, tree.Root().Right().Color())

	require.Equal(t, int64(1), tree.EraseKey(5))

	//      [20]
	//      /  \
	//   [10]  [30]
	//      \
	//     <15>
	requireTree(t, tree, []checkData{
		{Black, 10}, {Red, 15}, {Black, 20}, {Black, 30},
	})
	require.Equal(t, 20, tree.Root().Key())
	require.Equal(t, 10, tree.Root().Left().Key())
	require.Equal(t, 15, tree.Root().Left().Right().Key())
	require.Equal(t, 10, tree.Leftmost().Key())
}

func TestRbtreeDuplicateKeys(t *testing.T) {
	tree, err := NewMapRBTree[int, string](infra.OrderedLess[int])
	require.NoError(t, err)

	for _, p := range []Pair[int, string]{
		{1, "a"}, {2, "x"}, {1, "b"}, {0, "z"}, {1, "c"},
	} {
		_, err = tree.Insert(p)
		require.NoError(t, err)
	}
	require.NoError(t, Validate[int, Pair[int, string]](tree))

	got := make([]Pair[int, string], 0, tree.Len())
	tree.Foreach(func(idx int64, color RBColor, val Pair[int, string]) bool {
		got = append(got, val)
		return true
	})
	require.Equal(t, []Pair[int, string]{
		{0, "z"}, {1, "a"}, {1, "b"}, {1, "c"}, {2, "x"},
	}, got)

	require.Equal(t, int64(3), tree.Count(1))
	require.Equal(t, "a", tree.Find(1).Val().Val)
	first, last := tree.EqualRange(1)
	require.Equal(t, "a", first.Val().Val)
	require.Equal(t, 2, last.Key())

	it, ok, err := tree.InsertUnique(Pair[int, string]{1, "d"})
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "c", it.Val().Val)

	require.Equal(t, int64(3), tree.EraseKey(1))
	require.Equal(t, int64(2), tree.Len())
	require.False(t, tree.Contains(1))
	require.NoError(t, Validate[int, Pair[int, string]](tree))
}

func TestRbtreeInsertUnique(t *testing.T) {
	tree := newIntTree(t)
	for _, k := range []int{5, 3, 8, 1, 4, 7, 9, 2, 6} {
		it, ok, err := tree.InsertUnique(k)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, k, it.Key())
	}
	for _, k := range []int{1, 5, 9} {
		it, ok, err := tree.InsertUnique(k)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, k, it.Key())
	}
	require.Equal(t, int64(9), tree.Len())
	require.NoError(t, Validate[int, int](tree))
}

func TestRbtreeDesc(t *testing.T) {
	tree := newIntTree(t, WithRBTreeDesc())
	insertAll(t, tree, 3, 1, 2, 5, 4)
	require.Equal(t, []int{5, 4, 3, 2, 1}, treeKeys(tree))
	require.Equal(t, 5, tree.Leftmost().Key())
	require.True(t, tree.Less()(2, 1))
}

func TestRbtreePopMinMax(t *testing.T) {
	tree := newIntTree(t)
	_, ok := tree.PopMin()
	require.False(t, ok)
	_, ok = tree.PopMax()
	require.False(t, ok)

	insertAll(t, tree, 4, 2, 6, 1, 3, 5, 7)
	for _, expected := range []int{1, 2, 3} {
		v, ok := tree.PopMin()
		require.True(t, ok)
		require.Equal(t, expected, v)
		require.NoError(t, Validate[int, int](tree))
	}
	for _, expected := range []int{7, 6, 5, 4} {
		v, ok := tree.PopMax()
		require.True(t, ok)
		require.Equal(t, expected, v)
		require.NoError(t, Validate[int, int](tree))
	}
	require.True(t, tree.IsEmpty())
}

func TestRbtreeEraseRange(t *testing.T) {
	tree := newIntTree(t)
	insertAll(t, tree, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	// [3, 7)
	it := tree.EraseRange(tree.Find(3), tree.Find(7))
	require.Equal(t, 7, it.Key())
	require.Equal(t, []int{1, 2, 7, 8, 9}, treeKeys(tree))
	require.NoError(t, Validate[int, int](tree))

	// Empty range.
	it = tree.EraseRange(tree.Find(7), tree.Find(7))
	require.Equal(t, 7, it.Key())
	require.Equal(t, int64(5), tree.Len())

	it = tree.EraseRange(tree.Find(8), tree.End())
	require.True(t, it.IsEnd())
	require.Equal(t, []int{1, 2, 7}, treeKeys(tree))
	require.NoError(t, Validate[int, int](tree))

	it = tree.EraseRange(tree.Begin(), tree.End())
	require.True(t, it.IsEnd())
	require.True(t, tree.IsEmpty())
	require.NoError(t, Validate[int, int](tree))

	// Erasing End is a no-op.
	insertAll(t, tree, 1)
	require.True(t, tree.Erase(tree.End()).IsEnd())
	require.Equal(t, int64(1), tree.Len())
}

func TestRbtreeRandomInsertAndErase(t *testing.T) {
	type testcase struct {
		name     string
		total    int
		keySpace int
		seed     uint64
	}
	testcases := []testcase{
		{name: "dense duplicated 2000", total: 2000, keySpace: 64, seed: 1},
		{name: "sparse 5000", total: 5000, keySpace: 1 << 20, seed: 2},
		{name: "mostly unique 3000", total: 3000, keySpace: 4096, seed: 3},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rng := randv2.New(randv2.NewPCG(tc.seed, tc.seed<<1))
			tree := newIntTree(tt)
			ref := make([]int, 0, tc.total)

			for i := 0; i < tc.total; i++ {
				k := rng.IntN(tc.keySpace)
				if len(ref) > 0 && rng.IntN(3) == 0 {
					k = ref[rng.IntN(len(ref))]
					it := tree.Find(k)
					require.False(tt, it.IsEnd())
					tree.Erase(it)
					idx, found := slices.BinarySearch(ref, k)
					require.True(tt, found)
					ref = slices.Delete(ref, idx, idx+1)
				} else {
					_, err := tree.Insert(k)
					require.NoError(tt, err)
					idx, _ := slices.BinarySearch(ref, k)
					ref = slices.Insert(ref, idx, k)
				}
				if i%16 == 0 {
					require.NoError(tt, Validate[int, int](tree))
				}
			}
			require.NoError(tt, Validate[int, int](tree))
			require.Equal(tt, int64(len(ref)), tree.Len())
			tree.Foreach(func(idx int64, color RBColor, val int) bool {
				require.Equal(tt, ref[idx], val)
				return true
			})
			tree.ReverseForeach(func(idx int64, color RBColor, val int) bool {
				require.Equal(tt, ref[len(ref)-1-int(idx)], val)
				return true
			})

			for len(ref) > 0 {
				k := ref[rng.IntN(len(ref))]
				n := tree.EraseKey(k)
				lo, _ := slices.BinarySearch(ref, k)
				hi := lo
				for hi < len(ref) && ref[hi] == k {
					hi++
				}
				require.Equal(tt, int64(hi-lo), n)
				ref = slices.Delete(ref, lo, hi)
				require.NoError(tt, Validate[int, int](tree))
			}
			require.True(tt, tree.IsEmpty())
		})
	}
}

func BenchmarkRBTree_Random(b *testing.B) {
	b.StopTimer()
	tree, err := NewSetRBTree[int](infra.OrderedLess[int])
	if err != nil {
		panic(err)
	}

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tree.Insert(rngArr[i]); err != nil {
			panic(err)
		}
	}
}

func BenchmarkRBTree_Serial(b *testing.B) {
	b.StopTimer()
	tree, err := NewSetRBTree[int](infra.OrderedLess[int], WithRBTreeAllocator(alloc.WithArenaStrategy(1024, 0)))
	if err != nil {
		panic(err)
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tree.Insert(i); err != nil {
			panic(err)
		}
	}
}
