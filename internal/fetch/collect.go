package fetch

// Ordered drains results into a buffer indexed by input position and returns
// the successful ones in input order, regardless of completion order.
// n is the length of the input symbol slice.
func Ordered[T any](results <-chan Result[T], n int) []Result[T] {
	buf := make([]*Result[T], n)
	for r := range results {
		if r.Err != nil || r.Index < 0 || r.Index >= n {
			continue
		}
		buf[r.Index] = &r
	}
	out := make([]Result[T], 0, n)
	for _, r := range buf {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// Values drains results and returns the successful values in completion order.
func Values[T any](results <-chan Result[T]) []T {
	out := make([]T, 0)
	for r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}
