package errors

import "fmt"

// ErrValidationFailed signals that an input (flag, form field) failed validation.
type ErrValidationFailed struct {
	Field  string
	Reason string
}

func (err ErrValidationFailed) Error() string {
	switch {
	case err.Field != "" && err.Reason != "":
		return fmt.Sprintf("invalid %s: %s", err.Field, err.Reason)
	case err.Reason != "":
		return err.Reason
	}
	return "validation failed"
}
