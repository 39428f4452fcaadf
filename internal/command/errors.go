package command

import (
	"errors"
	"fmt"

	"github.com/smazurov/canister/internal/animation"
	"github.com/smazurov/canister/internal/audio"
	"github.com/smazurov/canister/internal/strip"
)

// Error codes
const (
	ErrCodeUnknownOperation = "UNKNOWN_OPERATION"
	ErrCodeArgumentMismatch = "ARGUMENT_MISMATCH"
	// ErrCodeMalformedRequest is reported when a request cannot be parsed
	// into a command at all.
	ErrCodeMalformedRequest = "MALFORMED_REQUEST"
	// ErrCodeInternal is reported for errors that carry no code of their own.
	ErrCodeInternal = "INTERNAL"
)

// Error is a dispatch failure that happened before a handler ran.
type Error struct {
	Code      string
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Code + ": "
	if e.Operation != "" {
		msg += e.Operation + ": "
	}
	msg += e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func unknownOperation(name string) *Error {
	return &Error{Code: ErrCodeUnknownOperation, Operation: name, Message: "no such command"}
}

func argumentMismatch(name, message string, cause error) *Error {
	return &Error{Code: ErrCodeArgumentMismatch, Operation: name, Message: message, Cause: cause}
}

// Malformed wraps a parse failure of a raw request.
func Malformed(err error) *Error {
	return &Error{Code: ErrCodeMalformedRequest, Message: "could not parse request", Cause: err}
}

// IsUnknownOperation reports whether err is an UNKNOWN_OPERATION error.
func IsUnknownOperation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeUnknownOperation
}

// IsArgumentMismatch reports whether err is an ARGUMENT_MISMATCH error.
func IsArgumentMismatch(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeArgumentMismatch
}

// Code extracts the error code from any domain error.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var (
		cmdErr   *Error
		animErr  *animation.Error
		audioErr *audio.Error
		stripErr *strip.Error
	)
	switch {
	case errors.As(err, &cmdErr):
		return cmdErr.Code
	case errors.As(err, &animErr):
		return animErr.Code
	case errors.As(err, &audioErr):
		return audioErr.Code
	case errors.As(err, &stripErr):
		return stripErr.Code
	default:
		return ErrCodeInternal
	}
}
