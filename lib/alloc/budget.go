package alloc

import "github.com/benz9527/xstl/lib/infra"

var _ Allocator[int] = (*budgetAllocator[int])(nil)

// budgetAllocator bounds the number of live objects of the wrapped
// allocator.
type budgetAllocator[T any] struct {
	Allocator[T]
	live       int64
	maxObjects int64
}

func (a *budgetAllocator[T]) Allocate() (*T, error) {
	if a.live >= a.maxObjects {
		return nil, infra.WrapErrorStackWithMessage(ErrAllocationFailure, "[alloc] live objects reach to budget")
	}
	ptr, err := a.Allocator.Allocate()
	if err != nil {
		return nil, err
	}
	a.live++
	return ptr, nil
}

func (a *budgetAllocator[T]) Deallocate(ptr *T) {
	if ptr == nil {
		return
	}
	a.Allocator.Deallocate(ptr)
	a.live--
}

func (a *budgetAllocator[T]) Release() {
	a.Allocator.Release()
	a.live = 0
}
