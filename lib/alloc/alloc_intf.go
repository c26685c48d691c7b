package alloc

import "errors"

var (
	ErrAllocationFailure   = errors.New("[alloc] object storage exhausted")
	ErrConstructionFailure = errors.New("[alloc] object construction failed")
	ErrInvalidOption       = errors.New("[alloc] invalid allocator option")
)

// Allocator hands out zeroed storage for a single T.
// Storage returned by Allocate must be given back by Deallocate exactly once.
type Allocator[T any] interface {
	Allocate() (*T, error)
	Deallocate(ptr *T)
	// Release drops every cached buffer. The allocator must not be used
	// afterwards.
	Release()
}

// Constructor builds a value in place and tears it down again.
// A failed Construct must leave dst in a state Destroy is not needed for.
type Constructor[V any] interface {
	Construct(dst *V, src V) error
	Destroy(dst *V)
}
