package alloc

import "github.com/benz9527/xstl/lib/infra"

var _ Allocator[int] = (*arenaAllocator[int])(nil)

type arenaBuffer[T any] struct {
	objs   []T
	offset int
}

func (buf *arenaBuffer[T]) available() int {
	return len(buf.objs) - buf.offset
}

func (buf *arenaBuffer[T]) allocate() *T {
	if buf.available() <= 0 {
		return nil
	}
	ptr := &buf.objs[buf.offset]
	buf.offset++
	return ptr
}

// arenaAllocator carves objects out of fixed size typed buffers and keeps
// deallocated objects in a free list for reuse.
// Objects are never returned to the GC until Release, a live pointer keeps
// its whole buffer reachable.
//
// maxBufs == 0 means the arena grows without limit.
type arenaAllocator[T any] struct {
	buffers   []*arenaBuffer[T]
	recycled  []*T
	capPerBuf int
	maxBufs   int
}

func newArenaAllocator[T any](capPerBuf, maxBufs uint32) *arenaAllocator[T] {
	if capPerBuf == 0 {
		capPerBuf = defaultArenaCapPerBuf
	}
	return &arenaAllocator[T]{
		buffers:   make([]*arenaBuffer[T], 0, 8),
		recycled:  make([]*T, 0, capPerBuf),
		capPerBuf: int(capPerBuf),
		maxBufs:   int(maxBufs),
	}
}

func (a *arenaAllocator[T]) bufLen() int {
	return len(a.buffers)
}

func (a *arenaAllocator[T]) recLen() int {
	return len(a.recycled)
}

func (a *arenaAllocator[T]) Allocate() (*T, error) {
	if rl := len(a.recycled); rl > 0 {
		ptr := a.recycled[rl-1]
		a.recycled[rl-1] = nil
		a.recycled = a.recycled[:rl-1]
		return ptr, nil
	}
	if bl := len(a.buffers); bl > 0 {
		if ptr := a.buffers[bl-1].allocate(); ptr != nil {
			return ptr, nil
		}
	}
	if a.maxBufs > 0 && len(a.buffers) >= a.maxBufs {
		return nil, infra.WrapErrorStackWithMessage(ErrAllocationFailure, "[alloc] arena reach to max buffers")
	}
	buf := &arenaBuffer[T]{
		objs: make([]T, a.capPerBuf),
	}
	a.buffers = append(a.buffers, buf)
	return buf.allocate(), nil
}

func (a *arenaAllocator[T]) Deallocate(ptr *T) {
	if ptr == nil {
		return
	}
	var zero T
	*ptr = zero
	a.recycled = append(a.recycled, ptr)
}

func (a *arenaAllocator[T]) Release() {
	clear(a.buffers)
	clear(a.recycled)
	a.buffers = a.buffers[:0]
	a.recycled = a.recycled[:0]
}
