package dberror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
type ErrorCategory int

const (
	// ErrCategoryUser covers errors caused by invalid caller input, such as a
	// tuple whose schema does not match the target table.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient covers errors that may succeed on retry, such as a
	// full buffer pool.
	ErrCategoryTransient

	// ErrCategorySystem covers errors requiring operator intervention, such as
	// disk failures.
	ErrCategorySystem

	// ErrCategoryData covers corrupted or malformed on-disk data.
	ErrCategoryData

	// ErrCategoryConcurrency covers conflicts between concurrent transactions.
	// The owning transaction must be rolled back and restarted.
	ErrCategoryConcurrency
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryUser:
		return "user"
	case ErrCategoryTransient:
		return "transient"
	case ErrCategorySystem:
		return "system"
	case ErrCategoryData:
		return "data"
	case ErrCategoryConcurrency:
		return "concurrency"
	default:
		return "unknown"
	}
}

// Sentinel errors for the storage layer. Every DBError produced by this
// package wraps exactly one of them, so callers can match with errors.Is.
var (
	ErrAddressing        = errors.New("page or record does not belong to this file")
	ErrSchemaMismatch    = errors.New("tuple schema does not match table schema")
	ErrPageFull          = errors.New("no empty slot on page")
	ErrSlotEmpty         = errors.New("slot is not occupied")
	ErrResourceExhausted = errors.New("buffer pool has no evictable page")
	ErrIO                = errors.New("i/o failure")
	ErrNoSuchElement     = errors.New("no such element")
	ErrIteratorClosed    = errors.New("iterator is not open")
	ErrTableNotFound     = errors.New("table not found")
)

// DBError represents a structured database error with context information.
type DBError struct {
	// Code is a unique identifier for the error type (e.g. "PAGE_FULL").
	Code string

	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about this specific instance.
	Detail string

	// Operation is the storage call that failed, e.g. "InsertTuple".
	Operation string

	// Component is where the error originated, e.g. "HeapFile".
	Component string

	// Cause is the underlying error.
	Cause error

	Stack []uintptr
}

// New creates a DBError wrapping a sentinel cause.
func New(category ErrorCategory, code string, cause error, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Cause:    cause,
		Stack:    captureStack(),
	}
}

// Newf is New with a formatted message.
func Newf(category ErrorCategory, code string, cause error, format string, args ...any) *DBError {
	e := New(category, code, cause, fmt.Sprintf(format, args...))
	e.Stack = captureStack()
	return e
}

// Wrap wraps an existing error with operation and component context. If err
// already is a DBError the missing context is filled in and it is returned
// unchanged otherwise.
func Wrap(err error, code, operation, component string) error {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return err
	}

	var aborted *TransactionAbortedError
	if errors.As(err, &aborted) {
		return err
	}

	return &DBError{
		Code:      code,
		Category:  ErrCategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// WithDetail attaches a detail string and returns the same error.
func (e *DBError) WithDetail(detail string) *DBError {
	e.Detail = detail
	return e
}

// At records operation and component and returns the same error.
func (e *DBError) At(operation, component string) *DBError {
	e.Operation = operation
	e.Component = component
	return e
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error formats as:
// [CODE] Message: Detail (operation: Op, component: Comp) caused by: cause
func (e *DBError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

func (e *DBError) Unwrap() error {
	return e.Cause
}

// FormatStack returns a human-readable stack trace.
func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}

// CategoryOf returns the category of the first DBError in err's chain.
// Aborts are always ErrCategoryConcurrency.
func CategoryOf(err error) (ErrorCategory, bool) {
	if IsAborted(err) {
		return ErrCategoryConcurrency, true
	}
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Category, true
	}
	return 0, false
}

// IsResourceExhausted reports whether err signals a full buffer pool.
func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrResourceExhausted)
}

// IsNoSuchElement reports whether err signals an exhausted iterator.
func IsNoSuchElement(err error) bool {
	return errors.Is(err, ErrNoSuchElement)
}
