// Package logging provides a process-wide structured logger for heapdb.
//
// The package wraps logrus and exposes a single global logger that is
// initialized once and then retrieved via GetLogger. Subsystems obtain their
// logger through this package so that level, format and destination are
// controlled from one place.
//
// # Initialisation
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    log.Fatal(err)
//	}
//
// If GetLogger is called before Init, a default stdout logger is created
// lazily so that packages logging during init are safe.
//
// # Context helpers
//
//	log := logging.WithTx(tid)       // adds tx_id field
//	log := logging.WithPage(pid)     // adds table_id and page_no fields
//	log := logging.WithComponent(c)  // adds component field
package logging
