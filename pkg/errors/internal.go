package errors

import "fmt"

// ErrInternal wraps a failure that is not caused by the caller's input, e.g.
// a document that could not be patched after a successful lookup.
type ErrInternal struct {
	Op  string
	Sub error
}

func (err ErrInternal) Error() string {
	if err.Op == "" {
		return fmt.Sprintf("internal error: %v", err.Sub)
	}
	return fmt.Sprintf("internal error during %s: %v", err.Op, err.Sub)
}

func (err ErrInternal) Unwrap() error {
	return err.Sub
}
