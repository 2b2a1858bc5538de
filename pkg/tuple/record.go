package tuple

import (
	"fmt"

	"heapdb/pkg/primitives"
)

// RecordID locates a stored tuple: the page holding it and its slot.
// It is a value type and may be compared with ==.
type RecordID struct {
	PageID primitives.PageID
	Slot   primitives.SlotID
}

func NewRecordID(pageID primitives.PageID, slot primitives.SlotID) *RecordID {
	return &RecordID{
		PageID: pageID,
		Slot:   slot,
	}
}

func (rid *RecordID) Equals(other *RecordID) bool {
	if other == nil {
		return false
	}
	return rid.PageID.Equals(other.PageID) && rid.Slot == other.Slot
}

func (rid *RecordID) String() string {
	return fmt.Sprintf("RecordID(page=%s, slot=%d)", rid.PageID.String(), rid.Slot)
}
