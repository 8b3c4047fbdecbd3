package errors

import (
	"errors"
	"fmt"
)

// ErrConflict signals that a submit was built upon a revision of the scenario
// that is no longer the current one.
type ErrConflict struct {
	ID       int
	Expected string
	Current  string
}

func (err ErrConflict) Error() string {
	return fmt.Sprintf("Scenario ID %d was modified concurrently (revision %s, current %s)", err.ID, short(err.Expected), short(err.Current))
}

func short(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	if rev == "" {
		return "none"
	}
	return rev
}

// ErrLockUnavailable signals that the collection lock could not be acquired,
// either because another editor holds it or the lock backend is unreachable.
var ErrLockUnavailable = errors.New("collection is locked by another editor, try again")
