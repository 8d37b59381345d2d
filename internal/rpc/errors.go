package rpc

import "fmt"

// Error is a failed backend call: a non-2xx status or an envelope-level
// error field. Message is human-readable and safe to surface in dialogs.
type Error struct {
	Status  int
	Method  string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend call %s failed with status %d", e.Method, e.Status)
}

// DataIntegrityError marks a 2xx response whose body is missing fields the
// caller cannot proceed without. Fatal for the requesting operation.
type DataIntegrityError struct {
	Method  string
	Missing string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("invalid data from %s: missing %s", e.Method, e.Missing)
}
