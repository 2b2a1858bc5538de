package aggregation

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"heapdb/pkg/iterator"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// intGroup is the running state of one group.
type intGroup struct {
	min, max int32
	sum      decimal.Decimal
	count    int64
}

// IntegerAggregator aggregates an integer field, optionally grouped by
// another field. Groups are reported in the order they were first seen.
type IntegerAggregator struct {
	groupByField   int
	groupFieldType types.Type
	aggrField      int
	op             AggregateOp
	groups         map[types.GroupKey]*intGroup
	order          []types.GroupKey
	tupleDesc      *tuple.TupleDescription
	mutex          sync.RWMutex
}

// NewIntegerAggregator names its output fields "group" and the operation.
func NewIntegerAggregator(gbField int, gbFieldType types.Type, aField int, op AggregateOp) (*IntegerAggregator, error) {
	return newIntegerAggregator(gbField, gbFieldType, aField, op, "group", op.String())
}

func newIntegerAggregator(gbField int, gbFieldType types.Type, aField int, op AggregateOp,
	groupName, aggName string) (*IntegerAggregator, error) {
	switch op {
	case Min, Max, Sum, Avg, Count:
	default:
		return nil, fmt.Errorf("unsupported operation: %v", op)
	}

	ia := &IntegerAggregator{
		groupByField:   gbField,
		groupFieldType: gbFieldType,
		aggrField:      aField,
		op:             op,
		groups:         make(map[types.GroupKey]*intGroup),
	}

	var err error
	if gbField == NoGrouping {
		ia.tupleDesc, err = tuple.NewTupleDesc([]types.Type{types.IntType}, []string{aggName})
	} else {
		ia.tupleDesc, err = tuple.NewTupleDesc(
			[]types.Type{gbFieldType, types.IntType},
			[]string{groupName, aggName},
		)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating IntegerAggregator: %w", err)
	}
	return ia, nil
}

func (ia *IntegerAggregator) GetTupleDesc() *tuple.TupleDescription {
	return ia.tupleDesc
}

func (ia *IntegerAggregator) Merge(tup *tuple.Tuple) error {
	key, err := ia.groupKey(tup)
	if err != nil {
		return err
	}

	aggField, err := tup.GetField(ia.aggrField)
	if err != nil {
		return fmt.Errorf("failed to get aggregate field: %w", err)
	}
	intField, ok := aggField.(types.IntField)
	if !ok {
		return fmt.Errorf("aggregate field is not an integer")
	}
	value := intField.Value

	ia.mutex.Lock()
	defer ia.mutex.Unlock()

	g, exists := ia.groups[key]
	if !exists {
		g = &intGroup{min: value, max: value, sum: decimal.Zero}
		ia.groups[key] = g
		ia.order = append(ia.order, key)
	}

	g.min = min(g.min, value)
	g.max = max(g.max, value)
	g.sum = g.sum.Add(decimal.NewFromInt(int64(value)))
	g.count++
	return nil
}

func (ia *IntegerAggregator) groupKey(tup *tuple.Tuple) (types.GroupKey, error) {
	if ia.groupByField == NoGrouping {
		return types.NoGroup, nil
	}

	f, err := tup.GetField(ia.groupByField)
	if err != nil {
		return types.NoGroup, fmt.Errorf("failed to get grouping field: %w", err)
	}
	if f == nil || f.Type() != ia.groupFieldType {
		return types.NoGroup, fmt.Errorf("grouping field is not %s", ia.groupFieldType)
	}
	return types.GroupOf(f), nil
}

func (g *intGroup) result(op AggregateOp) int32 {
	switch op {
	case Min:
		return g.min
	case Max:
		return g.max
	case Sum:
		return int32(g.sum.IntPart())
	case Avg:
		// Truncated toward zero.
		return int32(g.sum.Div(decimal.NewFromInt(g.count)).Truncate(0).IntPart())
	default:
		return int32(g.count)
	}
}

// Iterator snapshots the current groups. Without grouping and without any
// merged tuple the result is empty.
func (ia *IntegerAggregator) Iterator() (iterator.DbIterator, error) {
	ia.mutex.RLock()
	defer ia.mutex.RUnlock()

	results := make([]*tuple.Tuple, 0, len(ia.order))
	for _, key := range ia.order {
		value := types.NewIntField(ia.groups[key].result(ia.op))
		fields := []types.Field{value}
		if gf, grouped := key.Field(); grouped {
			fields = []types.Field{gf, value}
		}

		t, err := tuple.NewTupleWithFields(ia.tupleDesc, fields...)
		if err != nil {
			return nil, fmt.Errorf("building result for group %v: %w", key, err)
		}
		results = append(results, t)
	}
	return iterator.NewTupleSliceIterator(ia.tupleDesc, results), nil
}
