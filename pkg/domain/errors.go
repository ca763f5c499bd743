package domain

import (
	"errors"
	"fmt"
)

// Code is a machine-readable failure reason. Every error that crosses a
// package boundary in this module carries one.
type Code string

const (
	// CodeUnknown represents an unclassified error.
	CodeUnknown Code = "UNKNOWN"

	// CodeUnauthorized means the caller lacks the required role, or is not
	// the recorded buyer for a buyer-only action.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeStateMismatch means the action is not permitted by the property's
	// current state, or the property does not exist.
	CodeStateMismatch Code = "STATE_MISMATCH"

	// CodeNotEligible means the principal failed an eligibility check.
	CodeNotEligible Code = "NOT_ELIGIBLE"

	// CodeInsufficientFunds means a value-ledger transfer failed for lack of
	// balance or pre-authorized allowance.
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"

	// CodeOverflow means a monetary computation would leave the integer
	// domain.
	CodeOverflow Code = "ARITHMETIC_OVERFLOW"

	// CodeInvalidConfig means a call supplied an out-of-range parameter.
	CodeInvalidConfig Code = "CONFIG_INVALID"

	// CodeInternal means an internal invariant did not hold.
	CodeInternal Code = "INTERNAL"
)

// Error is a code-carrying error value.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// E builds an Error with the given code and message.
func E(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Errorf builds an Error with a formatted message.
func Errorf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// GetCode extracts the code from any error. Returns CodeUnknown if the error
// is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks whether the error carries the given code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
