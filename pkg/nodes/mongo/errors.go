package mongo

import (
	"errors"
	"fmt"
)

var (
	ErrCollectionRequired = errors.New("collection name is required")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrUnsupported        = errors.New("unsupported operation")
	ErrTransactionAborted = errors.New("transaction aborted")
)

// Error kinds reported on items when the invocation continues on failure.
const (
	KindResolution  = "OperationResolutionError"
	KindDriver      = "DriverError"
	KindUnsupported = "UnsupportedOperationError"
	KindTransaction = "TransactionAbortedError"
	KindUnknown     = "Error"
)

// OperationResolutionError is returned when an item's parameters cannot be
// turned into a request.
type OperationResolutionError struct {
	Index     int
	Parameter string
	Err       error
}

func (e *OperationResolutionError) Error() string {
	return fmt.Sprintf("item %d: invalid %s: %v", e.Index, e.Parameter, e.Err)
}

func (e *OperationResolutionError) Unwrap() error {
	return e.Err
}

func (e *OperationResolutionError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// DriverError wraps a failure returned by the database for one item.
type DriverError struct {
	Index     int
	Operation Operation
	Err       error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("item %d: %s failed: %v", e.Index, e.Operation, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// UnsupportedOperationError is returned for an operation name the node does not know.
type UnsupportedOperationError struct {
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation %q", e.Operation)
}

func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupported
}

// TransactionAbortedError marks an item whose work was rolled back because
// another item in the same transaction failed.
type TransactionAbortedError struct {
	FailedIndex int
}

func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("transaction aborted: item %d failed", e.FailedIndex)
}

func (e *TransactionAbortedError) Is(target error) bool {
	return target == ErrTransactionAborted
}

// ItemFailedError aborts an invocation that does not continue on failure.
type ItemFailedError struct {
	Index int
	Err   error
}

func (e *ItemFailedError) Error() string {
	return fmt.Sprintf("item %d failed: %v", e.Index, e.Err)
}

func (e *ItemFailedError) Unwrap() error {
	return e.Err
}

// ErrorKind returns the kind name used on item errors.
func ErrorKind(err error) string {
	var (
		resolutionErr  *OperationResolutionError
		driverErr      *DriverError
		unsupportedErr *UnsupportedOperationError
		abortedErr     *TransactionAbortedError
	)

	switch {
	case errors.As(err, &resolutionErr):
		return KindResolution
	case errors.As(err, &unsupportedErr):
		return KindUnsupported
	case errors.As(err, &abortedErr):
		return KindTransaction
	case errors.As(err, &driverErr):
		return KindDriver
	default:
		return KindUnknown
	}
}
