package errors

import (
	"errors"
	"fmt"
)

// ErrBlob wraps unexpected blob store errors for clearer messaging.
type ErrBlob struct {
	Op        string
	Container string
	Name      string
	Err       error
}

func (e ErrBlob) Error() string {
	if e.Err == nil {
		return "blob store error"
	}
	if e.Op != "" {
		return fmt.Sprintf("blob store error during %s of %s/%s: %v", e.Op, e.Container, e.Name, e.Err)
	}
	return fmt.Sprintf("blob store error: %v", e.Err)
}

func (e ErrBlob) Unwrap() error {
	return e.Err
}

// ErrNotExist is returned by blob stores when the requested object is missing.
var ErrNotExist = errors.New("blob does not exist")
