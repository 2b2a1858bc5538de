package aggregation

import (
	"fmt"

	"heapdb/pkg/iterator"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// AggregateOperator computes one aggregate over its child, optionally
// grouped by one field. The child is fully consumed on Open.
type AggregateOperator struct {
	base        *iterator.BaseIterator
	source      iterator.DbIterator
	aField      int
	gField      int
	op          AggregateOp
	aggregator  Aggregator
	aggIterator iterator.DbIterator

	// newAggregator builds an empty aggregator; Open starts from one so a
	// reopened operator does not count its input twice.
	newAggregator func() (Aggregator, error)
}

func NewAggregateOperator(source iterator.DbIterator, aField, gField int, op AggregateOp) (*AggregateOperator, error) {
	if source == nil {
		return nil, fmt.Errorf("source iterator cannot be nil")
	}

	sourceDesc := source.GetTupleDesc()
	aType, err := sourceDesc.TypeAtIndex(aField)
	if err != nil {
		return nil, fmt.Errorf("invalid aggregate field index: %d", aField)
	}
	if aType != types.IntType {
		return nil, fmt.Errorf("unsupported field type for aggregation: %v", aType)
	}
	aName, _ := sourceDesc.GetFieldName(aField)

	var gType types.Type
	var gName string
	if gField != NoGrouping {
		if gType, err = sourceDesc.TypeAtIndex(gField); err != nil {
			return nil, fmt.Errorf("invalid group field index: %d", gField)
		}
		gName, _ = sourceDesc.GetFieldName(gField)
	}

	newAggregator := func() (Aggregator, error) {
		return newIntegerAggregator(gField, gType, aField, op, gName, fmt.Sprintf("%s(%s)", op, aName))
	}
	agg, err := newAggregator()
	if err != nil {
		return nil, err
	}

	ao := &AggregateOperator{
		source:        source,
		aField:        aField,
		gField:        gField,
		op:            op,
		aggregator:    agg,
		newAggregator: newAggregator,
	}
	ao.base = iterator.NewBaseIterator(ao.readNext)
	return ao, nil
}

func (ao *AggregateOperator) Open() error {
	if err := ao.source.Open(); err != nil {
		return fmt.Errorf("failed to open source iterator: %w", err)
	}

	agg, err := ao.newAggregator()
	if err != nil {
		return err
	}
	ao.aggregator = agg

	if err := iterator.ForEach(ao.source, ao.aggregator.Merge); err != nil {
		return fmt.Errorf("error merging tuple: %w", err)
	}

	ao.aggIterator, err = ao.aggregator.Iterator()
	if err != nil {
		return err
	}
	if err := ao.aggIterator.Open(); err != nil {
		return fmt.Errorf("failed to open aggregate iterator: %w", err)
	}

	ao.base.MarkOpened()
	return nil
}

func (ao *AggregateOperator) readNext() (*tuple.Tuple, error) {
	hasNext, err := ao.aggIterator.HasNext()
	if err != nil || !hasNext {
		return nil, err
	}
	return ao.aggIterator.Next()
}

// Rewind replays the computed results without reading the child again.
func (ao *AggregateOperator) Rewind() error {
	if ao.aggIterator == nil {
		return fmt.Errorf("aggregate operator not opened")
	}
	if err := ao.aggIterator.Rewind(); err != nil {
		return err
	}
	return ao.base.Rewind()
}

func (ao *AggregateOperator) Close() error {
	if ao.aggIterator != nil {
		_ = ao.aggIterator.Close()
	}
	if err := ao.source.Close(); err != nil {
		return err
	}
	return ao.base.Close()
}

func (ao *AggregateOperator) GetTupleDesc() *tuple.TupleDescription {
	return ao.aggregator.GetTupleDesc()
}

func (ao *AggregateOperator) HasNext() (bool, error)      { return ao.base.HasNext() }
func (ao *AggregateOperator) Next() (*tuple.Tuple, error) { return ao.base.Next() }

func (ao *AggregateOperator) AggregateField() int { return ao.aField }
func (ao *AggregateOperator) GroupField() int     { return ao.gField }
func (ao *AggregateOperator) Op() AggregateOp     { return ao.op }
