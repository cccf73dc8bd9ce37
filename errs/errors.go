// Package errs defines the error taxonomy shared by the store, service and
// HTTP layers. Callers wrap these with fmt.Errorf("...: %w") and test with
// errors.Is.
package errs

import "errors"

var (
	// ErrNotFound indicates that a challenge, notification or user is absent.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a lost race on a shared record.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrUnavailable indicates the datastore could not be reached.
	ErrUnavailable = errors.New("downstream unavailable")
	// ErrSweepAlreadyRunning indicates another process holds the sweep lock.
	ErrSweepAlreadyRunning = errors.New("challenge sweep already running")
)
