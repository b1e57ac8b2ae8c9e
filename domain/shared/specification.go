package shared

import "context"

// Specification encapsulates a query rule over T.
// IsSatisfiedBy is used for in-memory filtering; persistence adapters translate
// the concrete types into native queries.
type Specification[T any] interface {
	IsSatisfiedBy(ctx context.Context, entity T) bool
}

// AndSpecification is satisfied when every member is.
type AndSpecification[T any] struct {
	Specs []Specification[T]
}

func (spec AndSpecification[T]) IsSatisfiedBy(ctx context.Context, entity T) bool {
	for _, s := range spec.Specs {
		if !s.IsSatisfiedBy(ctx, entity) {
			return false
		}
	}
	return true
}

// And combines specifications; nil members are skipped.
func And[T any](specs ...Specification[T]) Specification[T] {
	kept := make([]Specification[T], 0, len(specs))
	for _, s := range specs {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return AndSpecification[T]{Specs: kept}
}

type NotSpecification[T any] struct {
	Spec Specification[T]
}

func (spec NotSpecification[T]) IsSatisfiedBy(ctx context.Context, entity T) bool {
	return !spec.Spec.IsSatisfiedBy(ctx, entity)
}

func Not[T any](inner Specification[T]) Specification[T] {
	return NotSpecification[T]{Spec: inner}
}
