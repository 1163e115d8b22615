package engine

import "errors"

var (
	// ErrInvalidConfig marks a malformed ProtocolConfig. It is returned
	// before any display resource is acquired.
	ErrInvalidConfig = errors.New("invalid protocol config")

	// ErrResourceAcquisition marks a display or asset that could not be
	// obtained.
	ErrResourceAcquisition = errors.New("resource acquisition failed")

	// ErrPersistence marks an event log that could not be written.
	ErrPersistence = errors.New("event log persistence failed")

	// ErrLogFlushed is returned when a flushed EventLog is written to or
	// flushed again.
	ErrLogFlushed = errors.New("event log already flushed")
)
