package types

import "fmt"

// NotFoundError reports a missing offer, JD, candidate or user.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ForbiddenError reports an actor that may not perform the operation.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// ConflictError reports a request that contradicts existing state,
// such as a duplicate application or a second JD for one offer.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
