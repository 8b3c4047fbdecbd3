package errors

import "fmt"

// ErrMalformed signals the stored document does not have the expected shape,
// e.g. a section value that is neither a string nor a list of strings.
type ErrMalformed struct {
	Path string
	Sub  error
}

var _ error = (*ErrMalformed)(nil)

func (err ErrMalformed) Error() string {
	if err.Path == "" {
		return fmt.Sprintf("malformed scenario collection: %s", err.Sub)
	}
	return fmt.Sprintf("malformed scenario collection at %s: %s", err.Path, err.Sub)
}

func (err ErrMalformed) Unwrap() error {
	return err.Sub
}
