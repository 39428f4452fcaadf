package audio

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeDeviceIO     = "DEVICE_IO"
	ErrCodeInvalidClip  = "INVALID_CLIP"
	ErrCodeInvalidLevel = "INVALID_LEVEL"
)

// Error is returned when a clip cannot be decoded or the output rejects it.
type Error struct {
	Code    string
	Clip    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Clip, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Clip, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsDeviceIO reports whether err is a DEVICE_IO error.
func IsDeviceIO(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDeviceIO
}
