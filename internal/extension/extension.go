// Package extension provides per-request storage of values keyed by their
// type. At most one value of a given type is held; storing another value of
// the same type replaces it for code that uses the returned context.
package extension

import (
	"context"
	"fmt"
)

// key is zero-sized: two keys are equal exactly when their type parameters
// are identical, so the type itself is the map key.
type key[T any] struct{}

// With returns a copy of ctx carrying v as the value for type T.
func With[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, key[T]{}, v)
}

// Get returns the value stored for type T. The boolean is false when no value
// of that type has been stored; absence is not an error.
func Get[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(key[T]{}).(T)
	return v, ok
}

// MustGet returns the value stored for type T, panicking if there is none.
// Use it only where a missing value is a programming error.
func MustGet[T any](ctx context.Context) T {
	v, ok := Get[T](ctx)
	if !ok {
		var zero T
		panic(fmt.Sprintf("no %T value present in context", zero))
	}
	return v
}
