package iterator

import "heapdb/pkg/tuple"

// drain pulls from an open iterator until it is exhausted or visit returns
// stop=true.
func drain(it TupleIterator, visit func(*tuple.Tuple) (stop bool, err error)) error {
	for {
		ok, err := it.HasNext()
		if err != nil || !ok {
			return err
		}
		t, err := it.Next()
		if err != nil {
			return err
		}
		if stop, err := visit(t); err != nil || stop {
			return err
		}
	}
}

// ForEach calls fn for every remaining tuple of an open iterator.
func ForEach(it TupleIterator, fn func(*tuple.Tuple) error) error {
	return drain(it, func(t *tuple.Tuple) (bool, error) {
		return false, fn(t)
	})
}

// Collect drains it into a slice.
func Collect(it TupleIterator) ([]*tuple.Tuple, error) {
	var out []*tuple.Tuple
	err := drain(it, func(t *tuple.Tuple) (bool, error) {
		out = append(out, t)
		return false, nil
	})
	return out, err
}

func Count(it TupleIterator) (int, error) {
	n := 0
	err := drain(it, func(*tuple.Tuple) (bool, error) {
		n++
		return false, nil
	})
	return n, err
}

// Take returns up to n tuples, leaving the rest unread.
func Take(it TupleIterator, n int) ([]*tuple.Tuple, error) {
	out := make([]*tuple.Tuple, 0, max(n, 0))
	if n <= 0 {
		return out, nil
	}
	err := drain(it, func(t *tuple.Tuple) (bool, error) {
		out = append(out, t)
		return len(out) == n, nil
	})
	return out, err
}
