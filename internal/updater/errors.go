package updater

import (
	"errors"
	"fmt"
)

// Code classifies an update failure. The codes are printed by
// `canister update` and are stable.
type Code string

const (
	ErrCodeCheckFailed    Code = "CHECK_FAILED"
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeNoUpdate       Code = "NO_UPDATE"
	ErrCodeApplyFailed    Code = "APPLY_FAILED"
	ErrCodeBackupFailed   Code = "BACKUP_FAILED"
	ErrCodeRollbackFailed Code = "ROLLBACK_FAILED"
	ErrCodeNoBackup       Code = "NO_BACKUP"
	ErrCodeNotWritable    Code = "NOT_WRITABLE"
)

// Error is returned by Check, Apply and Rollback.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// HasCode reports whether err is an update error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
