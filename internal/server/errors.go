package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonathan/talent-pipeline/internal/lifecycle"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// errBadRequestBody reports a body that is not valid JSON for the route.
var errBadRequestBody = &types.ValidationError{Message: "request body must be valid JSON"}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		notFound      *types.NotFoundError
		forbidden     *types.ForbiddenError
		validation    *types.ValidationError
		conflict      *types.ConflictError
		transition    *lifecycle.InvalidTransitionError
		inconsistency *lifecycle.InconsistentStateError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &inconsistency):
		return http.StatusInternalServerError
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &validation), errors.As(err, &conflict):
		return http.StatusBadRequest
	case errors.As(err, &transition):
		return http.StatusConflict
	case errors.Is(err, lifecycle.ErrGeneratorUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage returns the text shown to API callers. Internal failures are
// not echoed verbatim.
func clientMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
