package eventbuilder

import (
	"errors"
	"fmt"
)

// ErrUnknownChannel is returned by wiring and calibration lookups for a
// module, ASIC or channel that is not mapped. The hit is unidentified.
var ErrUnknownChannel = errors.New("unknown channel")

// ErrTimeOrder is raised when the input stream goes back in time.
type ErrTimeOrder struct {
	Previous uint64
	Current  uint64
	Index    uint64
}

func (e *ErrTimeOrder) Error() string {
	return fmt.Sprintf("hit %d out of order: timestamp %d after %d", e.Index, e.Current, e.Previous)
}

// ErrWiring represents a missing or inconsistent wiring table.
type ErrWiring struct {
	Table  string
	Reason string
}

func (e *ErrWiring) Error() string {
	return fmt.Sprintf("invalid wiring table %q: %s", e.Table, e.Reason)
}

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrReadHit represents a corrupt or truncated record in a hit file.
type ErrReadHit struct {
	Index uint64
	Err   error
}

func (e *ErrReadHit) Error() string {
	return fmt.Sprintf("error reading hit %d: %v", e.Index, e.Err)
}

func (e *ErrReadHit) Unwrap() error {
	return e.Err
}

// ErrEmit represents a failure of the event sink.
type ErrEmit struct {
	EventID uint64
	Err     error
}

func (e *ErrEmit) Error() string {
	return fmt.Sprintf("error emitting event %d: %v", e.EventID, e.Err)
}

func (e *ErrEmit) Unwrap() error {
	return e.Err
}
