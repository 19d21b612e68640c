package main

import "fmt"

// Exit codes for the epyc CLI: 0 success, 1 usage, 2 notebook error.
// EXIT_UNKNOWNPANIC (3) reports an unexpected panic; it is its own code,
// distinct from the other assigned codes (and from the 2 that Go itself
// uses when a process dies on an unrecovered panic).
const (
	EXIT_SUCCESS      = 0
	EXIT_BADARGS      = 1
	EXIT_NOTEBOOK     = 2
	EXIT_UNKNOWNPANIC = 3
)

// ErrExit carries an exit code alongside a user-facing message; Main
// recovers one of these from a panic and translates it directly into
// os.Exit.
type ErrExit struct {
	Message string
	Code    int
}

func (e *ErrExit) Error() string { return e.Message }

func badArgs(format string, args ...interface{}) *ErrExit {
	return &ErrExit{Message: fmt.Sprintf(format, args...), Code: EXIT_BADARGS}
}

func notebookError(format string, args ...interface{}) *ErrExit {
	return &ErrExit{Message: fmt.Sprintf(format, args...), Code: EXIT_NOTEBOOK}
}
