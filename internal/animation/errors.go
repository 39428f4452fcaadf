package animation

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeAssetNotFound = "ASSET_NOT_FOUND"
	ErrCodeInvalidAsset  = "INVALID_ASSET"
)

// Error is returned by the loader for any asset that cannot be played.
type Error struct {
	Code    string
	Name    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Name, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func notFound(name string, cause error) *Error {
	return &Error{Code: ErrCodeAssetNotFound, Name: name, Message: "animation file not found", Cause: cause}
}

func invalid(name, message string, cause error) *Error {
	return &Error{Code: ErrCodeInvalidAsset, Name: name, Message: message, Cause: cause}
}

// IsNotFound reports whether err is an ASSET_NOT_FOUND error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeAssetNotFound
}

// IsInvalid reports whether err is an INVALID_ASSET error.
func IsInvalid(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeInvalidAsset
}
