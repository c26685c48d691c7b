package infra

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Integer interface {
	Signed | Unsigned
}

type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// OrderedKeyComparator
// Assume i is the new key.
//  1. i == j (return 0)
//  2. i > j (return 1), turn to right part.
//  3. i < j (return -1), turn to left part.
type OrderedKeyComparator[K any] func(i, j K) int64

// LessFunc is a strict weak order over keys.
// Two keys are equivalent iff !less(i, j) && !less(j, i).
type LessFunc[K any] func(i, j K) bool

func OrderedLess[K OrderedKey](i, j K) bool {
	return i < j
}

func OrderedGreater[K OrderedKey](i, j K) bool {
	return i > j
}

func OrderedCompare[K OrderedKey](i, j K) int64 {
	if i == j {
		return 0
	} else if i < j {
		return -1
	}
	return 1
}

// Less adapts a three-way comparator into a strict weak order.
func (cmp OrderedKeyComparator[K]) Less() LessFunc[K] {
	if cmp == nil {
		return nil
	}
	return func(i, j K) bool {
		return cmp(i, j) < 0
	}
}

// Reverse flips the order, the tree keeps descending keys then.
func (less LessFunc[K]) Reverse() LessFunc[K] {
	if less == nil {
		return nil
	}
	return func(i, j K) bool {
		return less(j, i)
	}
}

// Equivalent reports that neither key is ordered before the other.
func (less LessFunc[K]) Equivalent(i, j K) bool {
	return !less(i, j) && !less(j, i)
}
