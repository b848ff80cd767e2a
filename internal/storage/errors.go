package storage

import "fmt"

// Error reports that a persisted record could not be read, parsed, encoded
// or written. Stores return it instead of guessing at unreadable data.
type Error struct {
	Store string // "queue" or "settings"
	Op    string // "read", "parse", "encode" or "write"
	Key   string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s store: %s %s: %v", e.Store, e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
