// Package collections provides small generic slice helpers.
package collections

// Apply maps every element of in through fn, returning a new slice.
func Apply[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}

	return out
}

// ApplyVariadic maps variadic arguments through fn.
func ApplyVariadic[T, U any](fn func(T) U, in ...T) []U {
	return Apply(in, fn)
}

// Filter returns the elements of in for which keep returns true.
func Filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}

	return out
}
