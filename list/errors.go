package list

import "fmt"

// Error describes a failed list operation.
type Error struct {
	Op     string
	Folder string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("list %s %s: %v", e.Op, e.Folder, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
