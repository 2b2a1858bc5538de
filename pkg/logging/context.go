package logging

import (
	"github.com/sirupsen/logrus"

	"heapdb/pkg/primitives"
)

// WithTx creates a logger with transaction context.
//
//	log := logging.WithTx(tid)
//	log.Debug("page acquired")
func WithTx(tid primitives.TransactionID) *logrus.Entry {
	return GetLogger().WithField("tx_id", tid.ID())
}

// WithTable creates a logger with table context.
func WithTable(tableID primitives.TableID) *logrus.Entry {
	return GetLogger().WithField("table_id", uint64(tableID))
}

// WithPage creates a logger with page context.
// Useful for buffer pool and storage operations.
func WithPage(pid primitives.PageID) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"table_id": uint64(pid.GetTableID()),
		"page_no":  uint64(pid.PageNo()),
	})
}

// WithPageTx combines transaction and page context.
func WithPageTx(tid primitives.TransactionID, pid primitives.PageID) *logrus.Entry {
	return WithPage(pid).WithField("tx_id", tid.ID())
}

// WithComponent creates a logger with component/subsystem context.
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}

// WithError creates a logger with error context.
func WithError(err error) *logrus.Entry {
	return GetLogger().WithError(err)
}
