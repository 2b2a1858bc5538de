package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/pkg/dberror"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

func TestNumSlots(t *testing.T) {
	twoInts := tuple.MustTupleDesc([]types.Type{types.IntType, types.IntType}, nil)
	withString := tuple.MustTupleDesc([]types.Type{types.IntType, types.StringType}, nil)

	tests := []struct {
		name     string
		pageSize int
		td       *tuple.TupleDescription
		want     primitives.SlotID
		header   int
	}{
		{"ten one-int slots", 42, oneIntDesc, 10, 2},
		{"still ten with slack", 45, oneIntDesc, 10, 2},
		{"default page, two ints", page.DefaultPageSize, twoInts, 504, 63},
		{"default page, int and string", page.DefaultPageSize, withString, 15, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page.SetPageSize(tt.pageSize)
			defer page.ResetPageSize()

			assert.Equal(t, tt.want, NumSlots(tt.td))
			assert.Equal(t, tt.header, HeaderSize(tt.td))
		})
	}
}

func TestHeapPage_SlotAccounting(t *testing.T) {
	withTenSlotPages(t)
	pid := primitives.NewPageID(1, 0)

	hp, err := NewEmptyHeapPage(pid, oneIntDesc)
	require.NoError(t, err)
	assert.Equal(t, primitives.SlotID(10), hp.GetNumEmptySlots())

	inserted := make([]*tuple.Tuple, 0, 10)
	for i := int32(0); i < 10; i++ {
		tup := intTuple(t, i)
		require.NoError(t, hp.InsertTuple(tup))
		require.NotNil(t, tup.RecordID)
		assert.Equal(t, primitives.SlotID(i), tup.RecordID.Slot)
		assert.Equal(t, pid, tup.RecordID.PageID)
		inserted = append(inserted, tup)
		assert.Equal(t, primitives.SlotID(9-i), hp.GetNumEmptySlots())
	}

	err = hp.InsertTuple(intTuple(t, 100))
	assert.ErrorIs(t, err, dberror.ErrPageFull)

	require.NoError(t, hp.DeleteTuple(inserted[3]))
	assert.Equal(t, primitives.SlotID(1), hp.GetNumEmptySlots())
	assert.False(t, hp.IsSlotUsed(3))

	err = hp.DeleteTuple(inserted[3])
	assert.ErrorIs(t, err, dberror.ErrSlotEmpty)

	again := intTuple(t, 42)
	require.NoError(t, hp.InsertTuple(again))
	assert.Equal(t, primitives.SlotID(3), again.RecordID.Slot, "lowest free slot is reused")
}

func TestHeapPage_InsertStoresCopy(t *testing.T) {
	withTenSlotPages(t)
	hp, err := NewEmptyHeapPage(primitives.NewPageID(1, 0), oneIntDesc)
	require.NoError(t, err)

	tup := intTuple(t, 1)
	require.NoError(t, hp.InsertTuple(tup))
	require.NoError(t, tup.SetField(0, types.NewIntField(77)))

	stored := hp.GetTuples()
	require.Len(t, stored, 1)
	f, err := stored[0].GetField(0)
	require.NoError(t, err)
	assert.Equal(t, types.NewIntField(1), f, "caller changes do not reach the page")
	assert.Equal(t, tup.RecordID, stored[0].RecordID)

	data, err := hp.GetPageData()
	require.NoError(t, err)
	decoded, err := NewHeapPage(hp.GetID(), data, oneIntDesc)
	require.NoError(t, err)
	f, err = decoded.GetTuples()[0].GetField(0)
	require.NoError(t, err)
	assert.Equal(t, types.NewIntField(1), f)
}

func TestHeapPage_Errors(t *testing.T) {
	withTenSlotPages(t)
	hp, err := NewEmptyHeapPage(primitives.NewPageID(1, 0), oneIntDesc)
	require.NoError(t, err)

	wrongSchema := tuple.NewTuple(tuple.MustTupleDesc([]types.Type{types.IntType, types.IntType}, nil))
	assert.ErrorIs(t, hp.InsertTuple(wrongSchema), dberror.ErrSchemaMismatch)
	assert.ErrorIs(t, hp.InsertTuple(tuple.NewTuple(oneIntDesc)), dberror.ErrSchemaMismatch)
	assert.Equal(t, primitives.SlotID(10), hp.GetNumEmptySlots())

	assert.ErrorIs(t, hp.DeleteTuple(intTuple(t, 1)), dberror.ErrAddressing)

	elsewhere := intTuple(t, 1)
	elsewhere.RecordID = tuple.NewRecordID(primitives.NewPageID(1, 5), 0)
	assert.ErrorIs(t, hp.DeleteTuple(elsewhere), dberror.ErrAddressing)

	_, err = NewHeapPage(primitives.NewPageID(1, 0), make([]byte, 43), oneIntDesc)
	assert.Error(t, err)

	_, err = hp.GetTupleAt(10)
	assert.Error(t, err)
}

func TestHeapPage_BitmapLayout(t *testing.T) {
	withTenSlotPages(t)
	hp, err := NewEmptyHeapPage(primitives.NewPageID(1, 0), oneIntDesc)
	require.NoError(t, err)

	tuples := make([]*tuple.Tuple, 0, 9)
	for i := int32(1); i <= 9; i++ {
		tup := intTuple(t, i)
		require.NoError(t, hp.InsertTuple(tup))
		tuples = append(tuples, tup)
	}
	require.NoError(t, hp.DeleteTuple(tuples[1]))

	data, err := hp.GetPageData()
	require.NoError(t, err)
	require.Len(t, data, 42)

	// slots 0 and 2-7 in byte 0, slot 8 in bit 0 of byte 1
	assert.Equal(t, byte(0b11111101), data[0])
	assert.Equal(t, byte(0b00000001), data[1])

	// slot 0 holds 1 at offset 2, slot 1 is zeroed, slot 2 holds 3
	assert.Equal(t, []byte{0, 0, 0, 1}, data[2:6])
	assert.Equal(t, []byte{0, 0, 0, 0}, data[6:10])
	assert.Equal(t, []byte{0, 0, 0, 3}, data[10:14])
}

func TestHeapPage_RoundTrip(t *testing.T) {
	td := tuple.MustTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"id", "name"})
	pid := primitives.NewPageID(3, 7)

	hp, err := NewEmptyHeapPage(pid, td)
	require.NoError(t, err)

	names := []string{"ada", "grace", "", "linus"}
	for i, n := range names {
		tup, err := tuple.NewTupleWithFields(td, types.NewIntField(int32(i)), types.NewStringField(n, types.StringMaxSize))
		require.NoError(t, err)
		require.NoError(t, hp.InsertTuple(tup))
	}
	first, err := hp.GetTupleAt(0)
	require.NoError(t, err)
	require.NoError(t, hp.DeleteTuple(first))

	data, err := hp.GetPageData()
	require.NoError(t, err)
	require.Len(t, data, page.DefaultPageSize)

	decoded, err := NewHeapPage(pid, data, td)
	require.NoError(t, err)

	again, err := decoded.GetPageData()
	require.NoError(t, err)
	assert.Equal(t, data, again)
	assert.Equal(t, hp.GetNumEmptySlots(), decoded.GetNumEmptySlots())

	got := decoded.GetTuples()
	require.Len(t, got, 3)
	for i, tup := range got {
		assert.True(t, tup.Equals(hp.GetTuples()[i]))
		assert.Equal(t, primitives.SlotID(i+1), tup.RecordID.Slot)
		assert.Equal(t, pid, tup.RecordID.PageID)
	}
}

func TestHeapPage_ShortDataIsZeroPadded(t *testing.T) {
	withTenSlotPages(t)

	hp, err := NewHeapPage(primitives.NewPageID(1, 0), []byte{0b00000001, 0, 0, 0, 0, 9}, oneIntDesc)
	require.NoError(t, err)

	assert.Equal(t, primitives.SlotID(9), hp.GetNumEmptySlots())
	tup, err := hp.GetTupleAt(0)
	require.NoError(t, err)
	f, err := tup.GetField(0)
	require.NoError(t, err)
	assert.Equal(t, types.NewIntField(9), f)
}

func TestHeapPage_DirtyTracking(t *testing.T) {
	hp, err := NewEmptyHeapPage(primitives.NewPageID(1, 0), oneIntDesc)
	require.NoError(t, err)

	_, dirty := hp.IsDirty()
	assert.False(t, dirty)

	tid := primitives.NewTransactionID()
	hp.MarkDirty(true, tid)
	got, dirty := hp.IsDirty()
	assert.True(t, dirty)
	assert.Equal(t, tid, got)

	hp.MarkDirty(false, tid)
	got, dirty = hp.IsDirty()
	assert.False(t, dirty)
	assert.True(t, got.IsZero())
}

func TestHeapPageIterator(t *testing.T) {
	withTenSlotPages(t)
	hp, err := NewEmptyHeapPage(primitives.NewPageID(1, 0), oneIntDesc)
	require.NoError(t, err)

	for _, v := range []int32{5, 6, 7} {
		require.NoError(t, hp.InsertTuple(intTuple(t, v)))
	}

	it := hp.Iterator()
	require.NoError(t, it.Open())

	first, err := it.Next()
	require.NoError(t, err)
	require.NoError(t, hp.DeleteTuple(first))

	assert.Equal(t, []int32{6, 7}, intValues(t, it), "snapshot survives concurrent delete")

	_, err = it.Next()
	assert.ErrorIs(t, err, dberror.ErrNoSuchElement)

	require.NoError(t, it.Rewind())
	assert.Equal(t, []int32{6, 7}, intValues(t, it))
	require.NoError(t, it.Close())
}
