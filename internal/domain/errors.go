package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a failure of a catalog operation.
type ErrorCode string

const (
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeDuplicateName      ErrorCode = "DUPLICATE_NAME"
	CodeInvalidReference   ErrorCode = "INVALID_REFERENCE"
	CodeInvalidImageFormat ErrorCode = "INVALID_IMAGE_FORMAT"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeStorageFailure     ErrorCode = "STORAGE_FAILURE"
)

// Error is a typed catalog error carrying the offending field and value.
type Error struct {
	Code    ErrorCode
	Field   string
	Value   any
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " "))
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Violations is the list of every check that failed for one request.
type Violations []*Error

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Code returns the code of the first violation.
func (v Violations) Code() ErrorCode {
	if len(v) == 0 {
		return CodeInvalidInput
	}
	return v[0].Code
}

// Err returns nil when there are no violations.
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// CodeOf reports the catalog error code of err. Untyped errors are storage failures.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var violations Violations
	if errors.As(err, &violations) {
		return violations.Code()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorageFailure
}

func NewInvalidInput(field string, value any, message string) *Error {
	return &Error{Code: CodeInvalidInput, Field: field, Value: value, Message: message}
}

func NewDuplicateName(field string, value any) *Error {
	return &Error{Code: CodeDuplicateName, Field: field, Value: value, Message: fmt.Sprintf("%v already exists", value)}
}

func NewInvalidReference(field string, value any) *Error {
	return &Error{Code: CodeInvalidReference, Field: field, Value: value, Message: fmt.Sprintf("%v does not exist", value)}
}

func NewInvalidImageFormat(field string, value any) *Error {
	return &Error{Code: CodeInvalidImageFormat, Field: field, Value: value, Message: "only jpg, jpeg and png images are accepted"}
}

func NewNotFound(entity EntityType, id any) *Error {
	return &Error{Code: CodeNotFound, Field: string(entity), Value: id, Message: fmt.Sprintf("%s %v not found", entity, id)}
}

func NewConflict(entity EntityType, id any, message string) *Error {
	return &Error{Code: CodeConflict, Field: string(entity), Value: id, Message: message}
}

func NewStorageFailure(err error) *Error {
	return &Error{Code: CodeStorageFailure, Message: "storage failure", Err: err}
}
