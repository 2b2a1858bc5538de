package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/pkg/iterator"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

var groupedDesc = tuple.MustTupleDesc(
	[]types.Type{types.StringType, types.IntType},
	[]string{"dept", "salary"},
)

func row(t *testing.T, dept string, salary int32) *tuple.Tuple {
	t.Helper()
	tup, err := tuple.NewTupleWithFields(groupedDesc,
		types.NewStringField(dept, types.StringMaxSize), types.NewIntField(salary))
	require.NoError(t, err)
	return tup
}

func sampleRows(t *testing.T) []*tuple.Tuple {
	return []*tuple.Tuple{
		row(t, "eng", 10),
		row(t, "ops", 5),
		row(t, "eng", 3),
		row(t, "ops", 8),
		row(t, "eng", -4),
		row(t, "hr", -7),
		row(t, "hr", 0),
	}
}

func mustIterator(t *testing.T, agg Aggregator) iterator.DbIterator {
	t.Helper()
	it, err := agg.Iterator()
	require.NoError(t, err)
	return it
}

type groupResult struct {
	group string
	value int32
}

func collectGrouped(t *testing.T, it iterator.DbIterator) []groupResult {
	t.Helper()
	require.NoError(t, it.Open())
	defer it.Close()

	all, err := iterator.Collect(it)
	require.NoError(t, err)

	out := make([]groupResult, 0, len(all))
	for _, tup := range all {
		g, err := tup.GetField(0)
		require.NoError(t, err)
		v, err := tup.GetField(1)
		require.NoError(t, err)
		out = append(out, groupResult{g.(types.StringField).Value, v.(types.IntField).Value})
	}
	return out
}

func TestIntegerAggregator_Grouped(t *testing.T) {
	tests := []struct {
		op   AggregateOp
		want []groupResult
	}{
		{Min, []groupResult{{"eng", -4}, {"ops", 5}, {"hr", -7}}},
		{Max, []groupResult{{"eng", 10}, {"ops", 8}, {"hr", 0}}},
		{Sum, []groupResult{{"eng", 9}, {"ops", 13}, {"hr", -7}}},
		{Avg, []groupResult{{"eng", 3}, {"ops", 6}, {"hr", -3}}},
		{Count, []groupResult{{"eng", 3}, {"ops", 2}, {"hr", 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			agg, err := NewIntegerAggregator(0, types.StringType, 1, tt.op)
			require.NoError(t, err)

			for _, tup := range sampleRows(t) {
				require.NoError(t, agg.Merge(tup))
			}
			assert.Equal(t, tt.want, collectGrouped(t, mustIterator(t, agg)), "groups in first-seen order")
		})
	}
}

func TestIntegerAggregator_Ungrouped(t *testing.T) {
	agg, err := NewIntegerAggregator(NoGrouping, types.IntType, 1, Avg)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.GetTupleDesc().NumFields())

	it := mustIterator(t, agg)
	require.NoError(t, it.Open())
	n, err := iterator.Count(it)
	require.NoError(t, err)
	assert.Zero(t, n, "no input, no rows")

	for _, tup := range sampleRows(t) {
		require.NoError(t, agg.Merge(tup))
	}

	it = mustIterator(t, agg)
	require.NoError(t, it.Open())
	all, err := iterator.Collect(it)
	require.NoError(t, err)
	require.Len(t, all, 1)

	v, err := all[0].GetField(0)
	require.NoError(t, err)
	// 15 / 7 truncates to 2.
	assert.Equal(t, types.NewIntField(2), v)
}

func TestIntegerAggregator_Errors(t *testing.T) {
	_, err := NewIntegerAggregator(NoGrouping, types.IntType, 0, AggregateOp(42))
	assert.Error(t, err)

	agg, err := NewIntegerAggregator(NoGrouping, types.IntType, 0, Sum)
	require.NoError(t, err)
	assert.Error(t, agg.Merge(row(t, "eng", 1)), "field 0 is a string")

	agg, err = NewIntegerAggregator(0, types.IntType, 1, Sum)
	require.NoError(t, err)
	assert.Error(t, agg.Merge(row(t, "eng", 1)), "group field type mismatch")
}

func TestIntegerAggregator_IteratorReportsBuildErrors(t *testing.T) {
	agg, err := NewIntegerAggregator(0, types.IntType, 1, Count)
	require.NoError(t, err)

	// A group whose key does not fit the output schema.
	key := types.GroupOf(types.NewStringField("eng", types.StringMaxSize))
	agg.groups[key] = &intGroup{count: 1}
	agg.order = append(agg.order, key)

	_, err = agg.Iterator()
	assert.Error(t, err)
}

func TestParseAggregateOp(t *testing.T) {
	op, err := ParseAggregateOp("avg")
	require.NoError(t, err)
	assert.Equal(t, Avg, op)

	_, err = ParseAggregateOp("median")
	assert.Error(t, err)
}

func TestAggregateOperator(t *testing.T) {
	child := iterator.NewTupleSliceIterator(groupedDesc, sampleRows(t))

	op, err := NewAggregateOperator(child, 1, 0, Sum)
	require.NoError(t, err)

	name, err := op.GetTupleDesc().GetFieldName(1)
	require.NoError(t, err)
	assert.Equal(t, "SUM(salary)", name)
	name, err = op.GetTupleDesc().GetFieldName(0)
	require.NoError(t, err)
	assert.Equal(t, "dept", name)

	want := []groupResult{{"eng", 9}, {"ops", 13}, {"hr", -7}}
	assert.Equal(t, want, collectGrouped(t, op))

	require.NoError(t, op.Open())
	first, err := iterator.Collect(op)
	require.NoError(t, err)
	require.NoError(t, op.Rewind())
	second, err := iterator.Collect(op)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
	require.NoError(t, op.Close())
}

func TestAggregateOperator_InvalidFields(t *testing.T) {
	child := iterator.NewTupleSliceIterator(groupedDesc, nil)

	_, err := NewAggregateOperator(child, 0, NoGrouping, Sum)
	assert.Error(t, err, "string aggregates are unsupported")

	_, err = NewAggregateOperator(child, 5, NoGrouping, Sum)
	assert.Error(t, err)

	_, err = NewAggregateOperator(child, 1, 7, Sum)
	assert.Error(t, err)

	_, err = NewAggregateOperator(nil, 1, NoGrouping, Sum)
	assert.Error(t, err)
}
