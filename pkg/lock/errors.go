package lock

import "errors"

// ErrNotLocked is returned when unlocking a mutex that is not held.
var ErrNotLocked = errors.New("mutex is not locked")
