package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/flash"
)

// noticeFromError turns the errors a user can act upon into a notice, and
// the page to redirect to. ok is false for any other error.
func noticeFromError(rawID string, err error) (notice flash.Notice, to string, ok bool) {
	var (
		notFound *errs.ErrScenarioNotFound
		ninvalid *errs.ErrInvalidID
		conflict *errs.ErrConflict
	)
	switch {
	case errors.As(err, &notFound):
		return flash.Danger(fmt.Sprintf("Scenario ID %s does not exist.", rawID)), "/", true
	case errors.As(err, &ninvalid):
		return flash.Danger(fmt.Sprintf("Scenario ID %s is not a valid identifier.", rawID)), "/", true
	case errors.As(err, &conflict):
		return flash.Warning(fmt.Sprintf("Scenario ID %s was modified by someone else, reload and retry.", rawID)), editPath(rawID), true
	}
	return flash.Notice{}, "", false
}

// statusFromError normalizes internal errors into HTTP status codes for the
// error page.
func statusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch err.(type) {
	case *errs.ErrValidationFailed:
		return http.StatusBadRequest
	case *errs.ErrMalformed, *errs.ErrInternal:
		return http.StatusInternalServerError
	}

	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, errs.ErrLockUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	return http.StatusInternalServerError
}
