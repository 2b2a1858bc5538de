package iterator

import (
	"heapdb/pkg/dberror"
	"heapdb/pkg/tuple"
)

// UnaryOperator is the base for operators with exactly one child. The
// embedding operator pulls from the child with FetchNext inside its
// ReadNextFunc; lifecycle calls are forwarded to the child first.
type UnaryOperator struct {
	*BaseIterator
	child DbIterator
}

func NewUnaryOperator(child DbIterator, readNext ReadNextFunc) (*UnaryOperator, error) {
	if child == nil {
		return nil, dberror.New(dberror.ErrCategoryUser, "NIL_CHILD", nil, "operator child is nil")
	}
	return &UnaryOperator{BaseIterator: NewBaseIterator(readNext), child: child}, nil
}

// FetchNext returns the child's next tuple, or nil once the child is drained.
func (u *UnaryOperator) FetchNext() (*tuple.Tuple, error) {
	ok, err := u.child.HasNext()
	if err != nil || !ok {
		return nil, err
	}
	return u.child.Next()
}

func (u *UnaryOperator) Open() error {
	if err := u.child.Open(); err != nil {
		return dberror.Wrap(err, "CHILD_OPEN", "Open", "UnaryOperator")
	}
	u.MarkOpened()
	return nil
}

// Rewind restarts the child and drops any cached lookahead.
func (u *UnaryOperator) Rewind() error {
	if err := u.child.Rewind(); err != nil {
		return dberror.Wrap(err, "CHILD_REWIND", "Rewind", "UnaryOperator")
	}
	return u.BaseIterator.Rewind()
}

func (u *UnaryOperator) Close() error {
	err := u.child.Close()
	_ = u.BaseIterator.Close()
	return err
}

// GetTupleDesc defaults to the child's schema. Operators that reshape tuples
// override it.
func (u *UnaryOperator) GetTupleDesc() *tuple.TupleDescription {
	return u.child.GetTupleDesc()
}

func (u *UnaryOperator) Child() DbIterator {
	return u.child
}
