package schedule

import "iter"

// Iterator provides pull-based sequential access to values. Next returns
// false once the iterator is exhausted.
type Iterator[T any] interface {
	Next() (T, bool)
}

// IteratorFunc adapts a function to Iterator.
type IteratorFunc[T any] func() (T, bool)

func (f IteratorFunc[T]) Next() (T, bool) {
	return f()
}

// Filter returns an iterator over the values of src for which keep returns
// true. src is only pulled when the returned iterator is.
func Filter[T any](src Iterator[T], keep func(T) bool) Iterator[T] {
	return IteratorFunc[T](func() (T, bool) {
		for {
			v, ok := src.Next()
			if !ok {
				return v, false
			}
			if keep(v) {
				return v, true
			}
		}
	})
}

// Prefix returns an iterator over at most n values of src. It stops pulling
// from src after the n-th value.
func Prefix[T any](src Iterator[T], n int) Iterator[T] {
	taken := 0
	return IteratorFunc[T](func() (T, bool) {
		var zero T
		if taken >= n {
			return zero, false
		}
		v, ok := src.Next()
		if !ok {
			taken = n
			return zero, false
		}
		taken++
		return v, true
	})
}

// Collect drains src into a slice. src must be finite.
func Collect[T any](src Iterator[T]) []T {
	var out []T
	for {
		v, ok := src.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Seq adapts src to an iter.Seq. The sequence is single use: values
// consumed by one range loop are not seen by the next.
func Seq[T any](src Iterator[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := src.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}
