package domain

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	CodeValidation   ErrCode = "validation_error"
	CodeConflict     ErrCode = "conflict"
	CodeNotFound     ErrCode = "not_found"
	CodeForbidden    ErrCode = "forbidden"
	CodeInvalidState ErrCode = "invalid_state"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}

// ErrValidationField reports a single offending field; the reason doubles as the message.
func ErrValidationField(field, reason string) error {
	return &AppError{Code: CodeValidation, Message: reason, Meta: map[string]string{field: reason}}
}

func ErrConflict(msg string) error { return &AppError{Code: CodeConflict, Message: msg} }
func ErrConflictField(field, reason string) error {
	return &AppError{Code: CodeConflict, Message: reason, Meta: map[string]string{field: reason}}
}
func ErrNotFound(msg string) error     { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) error    { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrInvalidState(msg string) error { return &AppError{Code: CodeInvalidState, Message: msg} }

// CodeOf returns the AppError code carried by err, or "" for infrastructure errors.
func CodeOf(err error) ErrCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func IsCode(err error, code ErrCode) bool { return CodeOf(err) == code }
