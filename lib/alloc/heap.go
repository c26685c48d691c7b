package alloc

var _ Allocator[int] = (*heapAllocator[int])(nil)

// heapAllocator leaves everything to the GC.
type heapAllocator[T any] struct{}

func (a *heapAllocator[T]) Allocate() (*T, error) {
	return new(T), nil
}

func (a *heapAllocator[T]) Deallocate(ptr *T) {
	if ptr == nil {
		return
	}
	var zero T
	*ptr = zero
}

func (a *heapAllocator[T]) Release() {}
