package aggregation

import (
	"fmt"
	"strings"

	"heapdb/pkg/iterator"
	"heapdb/pkg/tuple"
)

// NoGrouping is the group field index of an ungrouped aggregate.
const NoGrouping = -1

type AggregateOp int

const (
	Min AggregateOp = iota
	Max
	Sum
	Avg
	Count
)

var aggregateNames = [...]string{"MIN", "MAX", "SUM", "AVG", "COUNT"}

func (op AggregateOp) String() string {
	if op < 0 || int(op) >= len(aggregateNames) {
		return "UNKNOWN"
	}
	return aggregateNames[op]
}

// ParseAggregateOp accepts the names returned by String in any case.
func ParseAggregateOp(s string) (AggregateOp, error) {
	for i, name := range aggregateNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return AggregateOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown aggregate operation %q", s)
}

// Aggregator folds tuples into per-group aggregate values.
type Aggregator interface {
	// Merge folds one tuple into its group.
	Merge(tup *tuple.Tuple) error

	// Iterator returns the results: (aggregate) without grouping,
	// (group, aggregate) with it.
	Iterator() (iterator.DbIterator, error)

	GetTupleDesc() *tuple.TupleDescription
}
