package engine

import (
	"errors"
	"fmt"
)

// ErrorCode is one of the stable engine error codes the host and callers
// may branch on. New codes must not be introduced outside this list.
type ErrorCode string

const (
	CodeSQLiteExecution     ErrorCode = "LIX_RUST_SQLITE_EXECUTION"
	CodeDetectChanges       ErrorCode = "LIX_RUST_DETECT_CHANGES"
	CodeRewriteValidation   ErrorCode = "LIX_RUST_REWRITE_VALIDATION"
	CodeUnsupportedFeature  ErrorCode = "LIX_RUST_UNSUPPORTED_SQLITE_FEATURE"
	CodeProtocolMismatch    ErrorCode = "LIX_RUST_PROTOCOL_MISMATCH"
	CodeTimeout             ErrorCode = "LIX_RUST_TIMEOUT"
	CodeUnknown             ErrorCode = "LIX_RUST_UNKNOWN"
)

var stableCodes = map[ErrorCode]bool{
	CodeSQLiteExecution:    true,
	CodeDetectChanges:      true,
	CodeRewriteValidation:  true,
	CodeUnsupportedFeature: true,
	CodeProtocolMismatch:   true,
	CodeTimeout:            true,
	CodeUnknown:            true,
}

// EngineError is the error shape surfaced to callers across the host
// boundary: a stable code plus a free-form message.
type EngineError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewEngineError builds an EngineError with the given code and message.
func NewEngineError(code ErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// MapHostError maps an error returned by a HostCallbacks method to an
// EngineError. If err already carries a stable ErrorCode, that code is
// preserved; otherwise it is wrapped under defaultCode.
func MapHostError(err error, defaultCode ErrorCode) *EngineError {
	if err == nil {
		return nil
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		if stableCodes[ee.Code] {
			return ee
		}
		return &EngineError{Code: defaultCode, Message: ee.Message}
	}
	return &EngineError{Code: defaultCode, Message: err.Error()}
}
