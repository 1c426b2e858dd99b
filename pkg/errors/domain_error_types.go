package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// Domain error types for the exploration engine. These extend the generic
// ErrorType set in errors.go with failures that carry graph semantics:
// callers branch on them to decide whether state was mutated and whether
// a retry can succeed.
const (
	// ErrorTypeMissingEndpoint indicates a link referenced a concept label
	// that is not present in the graph. The link is rejected outright.
	ErrorTypeMissingEndpoint ErrorType = "MISSING_ENDPOINT"

	// ErrorTypeExpansionFailed indicates the AI provider failed to produce
	// a usable expansion for a label. The graph is left untouched and the
	// label stays eligible for a later attempt.
	ErrorTypeExpansionFailed ErrorType = "EXPANSION_FAILED"

	// ErrorTypePersistence indicates a save or load against the tree store
	// failed. In-memory session state remains valid.
	ErrorTypePersistence ErrorType = "PERSISTENCE"
)

// NewMissingEndpointError creates an error for a link whose endpoint labels
// do not all exist in the graph. Fatal to the operation, never retryable.
func NewMissingEndpointError(labels ...string) *AppError {
	return &AppError{
		Type:       ErrorTypeMissingEndpoint,
		Message:    fmt.Sprintf("link endpoint(s) not in graph: %s", strings.Join(labels, ", ")),
		Code:       "MISSING_ENDPOINT",
		Details:    map[string]interface{}{"missing_labels": labels},
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewExpansionFailedError creates an error for a failed AI expansion of
// label. The label is recorded so callers can requeue or surface it.
func NewExpansionFailedError(label string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExpansionFailed,
		Message:    fmt.Sprintf("expansion of '%s' failed", label),
		Code:       "EXPANSION_FAILED",
		Details:    map[string]interface{}{"label": label},
		Cause:      cause,
		HTTPStatus: http.StatusBadGateway,
		StackTrace: captureStackTrace(),
		Retryable:  true,
	}
}

// NewPersistenceError creates an error for a failed store operation.
// The session's in-memory graph is unaffected, so a retry is safe.
func NewPersistenceError(operation string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePersistence,
		Message:    fmt.Sprintf("persistence operation '%s' failed", operation),
		Code:       "PERSISTENCE_FAILED",
		Details:    map[string]interface{}{"operation": operation},
		Cause:      cause,
		HTTPStatus: http.StatusServiceUnavailable,
		StackTrace: captureStackTrace(),
		Retryable:  true,
	}
}

// IsMissingEndpoint checks if an error is a missing endpoint error
func IsMissingEndpoint(err error) bool {
	return IsType(err, ErrorTypeMissingEndpoint)
}

// IsExpansionFailed checks if an error is a failed expansion error
func IsExpansionFailed(err error) bool {
	return IsType(err, ErrorTypeExpansionFailed)
}

// IsPersistence checks if an error is a persistence error
func IsPersistence(err error) bool {
	return IsType(err, ErrorTypePersistence)
}

// Common domain error constructors

// NewEmptyLabelError creates an error for a blank concept label
func NewEmptyLabelError() *AppError {
	return NewValidationError("concept label must not be empty").WithCode("EMPTY_LABEL")
}

// NewLabelTooLongError creates an error for a label exceeding the limit
func NewLabelTooLongError(label string, max int) *AppError {
	return NewValidationError(fmt.Sprintf("concept label exceeds %d characters", max)).
		WithCode("LABEL_TOO_LONG").
		WithDetails(map[string]interface{}{"label": label, "max_length": max})
}

// NewSelfLinkError creates an error for a link from a concept to itself
func NewSelfLinkError(label string) *AppError {
	return NewValidationError(fmt.Sprintf("concept '%s' cannot link to itself", label)).
		WithCode("SELF_LINK").
		WithDetails(map[string]interface{}{"label": label})
}

// NewGraphLimitError creates an error for a graph that reached its size cap
func NewGraphLimitError(kind string, limit int) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    fmt.Sprintf("graph %s limit of %d reached", kind, limit),
		Code:       "GRAPH_LIMIT",
		Details:    map[string]interface{}{"kind": kind, "limit": limit},
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewConceptNotFoundError creates an error for a label absent from the graph
func NewConceptNotFoundError(label string) *AppError {
	return NewNotFoundError("concept").
		WithCode("CONCEPT_NOT_FOUND").
		WithDetails(map[string]interface{}{"label": label})
}

// NewTreeNotFoundError creates an error for a missing persisted tree
func NewTreeNotFoundError(userID, topic string) *AppError {
	return NewNotFoundError("tree").
		WithCode("TREE_NOT_FOUND").
		WithDetails(map[string]interface{}{"user_id": userID, "topic": topic})
}

// NewSessionNotFoundError creates an error for an unknown exploration session
func NewSessionNotFoundError(sessionID string) *AppError {
	return NewNotFoundError("exploration session").
		WithCode("SESSION_NOT_FOUND").
		WithDetails(map[string]interface{}{"session_id": sessionID})
}

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*AppError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*AppError, 0),
	}
}

// Add adds a validation error for a field
func (v *ValidationErrors) Add(field string, message string) {
	err := NewValidationError(message).
		WithCode("FIELD_VALIDATION_ERROR").
		WithDetails(map[string]interface{}{"field": field})
	v.Errors = append(v.Errors, err)
}

// AddError adds a pre-existing application error
func (v *ValidationErrors) AddError(err *AppError) {
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// ToMap converts validation errors to a map for JSON serialization
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}
