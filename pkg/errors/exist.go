package errors

import "fmt"

// ErrScenarioNotFound is returned when no record of the collection carries
// the requested identifier.
type ErrScenarioNotFound struct {
	ID int
}

func (err ErrScenarioNotFound) Error() string {
	return fmt.Sprintf("Scenario ID %d does not exist", err.ID)
}

// ErrInvalidID is returned when a scenario identifier is not an integer.
type ErrInvalidID struct {
	Raw string
}

func (err ErrInvalidID) Error() string {
	return fmt.Sprintf("Scenario ID %s is not a valid identifier", err.Raw)
}
