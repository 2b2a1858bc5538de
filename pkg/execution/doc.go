// Package execution contains the pull-based operators that read and write
// tuples through the buffer pool.
//
// Every operator follows the same lifecycle: Open, then any number of
// HasNext/Next calls, optionally Rewind, then Close. Operators are built on
// iterator.BaseIterator and iterator.UnaryOperator, which supply the
// lookahead; each operator only implements a readNext function that returns
// the next tuple or nil when exhausted.
//
// Available operators:
//   - SeqScan reads every tuple of a table through its heap file iterator.
//   - Filter passes on child tuples that satisfy a Predicate.
//   - Insert and Delete drain their child, modify a table, and yield a
//     single tuple holding the number of affected rows.
//
// Aggregation lives in the aggregation subpackage.
package execution
