package alloc

import "sync"

var _ Allocator[int] = (*poolAllocator[int])(nil)

// poolAllocator recycles storage through a sync.Pool. The pool may drop
// cached objects at any GC, so it never reports exhaustion.
type poolAllocator[T any] struct {
	objPool *sync.Pool
}

func newPoolAllocator[T any]() *poolAllocator[T] {
	return &poolAllocator[T]{
		objPool: &sync.Pool{
			New: func() any {
				return new(T)
			},
		},
	}
}

func (a *poolAllocator[T]) Allocate() (*T, error) {
	return a.objPool.Get().(*T), nil
}

func (a *poolAllocator[T]) Deallocate(ptr *T) {
	if ptr == nil {
		return
	}
	var zero T
	*ptr = zero // drop references before caching
	a.objPool.Put(ptr)
}

func (a *poolAllocator[T]) Release() {
	a.objPool = &sync.Pool{
		New: func() any {
			return new(T)
		},
	}
}
