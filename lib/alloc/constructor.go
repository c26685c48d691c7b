package alloc

import "github.com/benz9527/xstl/lib/infra"

type copyConstructor[V any] struct{}

func (copyConstructor[V]) Construct(dst *V, src V) error {
	*dst = src
	return nil
}

func (copyConstructor[V]) Destroy(dst *V) {
	var zero V
	*dst = zero
}

// CopyConstructor assigns the source value and never fails.
func CopyConstructor[V any]() Constructor[V] {
	return copyConstructor[V]{}
}

type funcConstructor[V any] struct {
	construct func(dst *V, src V) error
	destroy   func(dst *V)
}

func (c *funcConstructor[V]) Construct(dst *V, src V) error {
	if err := c.construct(dst, src); err != nil {
		var zero V
		*dst = zero
		return infra.WrapErrorStackWithMessage(joinConstruction(err), "[alloc] construct")
	}
	return nil
}

func (c *funcConstructor[V]) Destroy(dst *V) {
	if c.destroy != nil {
		c.destroy(dst)
	}
	var zero V
	*dst = zero
}

// ConstructorFunc adapts hooks into a Constructor. A nil construct
// falls back to plain assignment. Errors from construct always match
// ErrConstructionFailure by errors.Is.
func ConstructorFunc[V any](construct func(dst *V, src V) error, destroy func(dst *V)) Constructor[V] {
	if construct == nil {
		construct = copyConstructor[V]{}.Construct
	}
	return &funcConstructor[V]{
		construct: construct,
		destroy:   destroy,
	}
}

type constructionError struct {
	cause error
}

func (e *constructionError) Error() string {
	return ErrConstructionFailure.Error() + ": " + e.cause.Error()
}

func (e *constructionError) Unwrap() []error {
	return []error{ErrConstructionFailure, e.cause}
}

func joinConstruction(err error) error {
	if err == nil {
		return nil
	}
	return &constructionError{cause: err}
}
