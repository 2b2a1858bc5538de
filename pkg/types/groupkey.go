package types

import "heapdb/pkg/primitives"

// GroupKey identifies an aggregation group. The zero value is the single
// group used when no grouping column is configured. GroupKey is comparable
// and can be used as a map key.
type GroupKey struct {
	field Field
}

// NoGroup is the key of the single ungrouped group.
var NoGroup = GroupKey{}

// GroupOf returns the key for the group whose grouping value is f.
func GroupOf(f Field) GroupKey {
	return GroupKey{field: f}
}

// Field returns the grouping value, or false for NoGroup.
func (k GroupKey) Field() (Field, bool) {
	return k.field, k.field != nil
}

func (k GroupKey) IsGrouped() bool {
	return k.field != nil
}

func (k GroupKey) Equals(other GroupKey) bool {
	if k.field == nil || other.field == nil {
		return k.field == nil && other.field == nil
	}
	return k.field.Equals(other.field)
}

func (k GroupKey) Hash() primitives.HashCode {
	if k.field == nil {
		return 0
	}
	return k.field.Hash()
}

func (k GroupKey) String() string {
	if k.field == nil {
		return "<no group>"
	}
	return k.field.String()
}
