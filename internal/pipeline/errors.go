package pipeline

import (
	"errors"
	"fmt"

	"github.com/roach88/taskstore/internal/entity"
)

// Code categorizes operation errors.
type Code string

const (
	// CodeUnauthorized indicates a privilege check failed.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeInvalidArgument indicates a missing required field, a touched
	// write-once field, or a violated cross-field invariant.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeNotFound indicates the target row of an update/delete is absent.
	CodeNotFound Code = "NOT_FOUND"

	// CodeStorageFailure indicates an error propagated from storage.
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// OpError is an operation rejected or failed by the pipeline.
type OpError struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Kind identifies the affected entity kind.
	Kind entity.Kind

	// Field names the offending column, when one exists.
	Field string

	// Err is the underlying error (storage failures).
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s %s: %s", e.Code, e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Kind, e.Message)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsUnauthorized returns true if the error is a privilege rejection.
// Uses errors.As to handle wrapped errors.
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsInvalidArgument returns true if the error is a validation rejection.
func IsInvalidArgument(err error) bool {
	return hasCode(err, CodeInvalidArgument)
}

// IsNotFound returns true if the error reports an absent target row.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsStorageFailure returns true if the error propagated from storage.
func IsStorageFailure(err error) bool {
	return hasCode(err, CodeStorageFailure)
}

func hasCode(err error, code Code) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

func unauthorized(kind entity.Kind, message string) *OpError {
	return &OpError{Code: CodeUnauthorized, Kind: kind, Message: message}
}

func invalidArgument(kind entity.Kind, field, message string) *OpError {
	return &OpError{Code: CodeInvalidArgument, Kind: kind, Field: field, Message: message}
}

func notFound(kind entity.Kind, id int64) *OpError {
	return &OpError{
		Code:    CodeNotFound,
		Kind:    kind,
		Message: fmt.Sprintf("row %d does not exist", id),
	}
}

func storageFailure(kind entity.Kind, err error) *OpError {
	return &OpError{
		Code:    CodeStorageFailure,
		Kind:    kind,
		Message: err.Error(),
		Err:     err,
	}
}
