// Package errors carries coded errors through the backtest pipeline.
//
// Codes are grouped by hundreds: validation 1xx, data 2xx, indicators 3xx,
// strategies 4xx, risk 5xx, backtest and optimisation 6xx, market data 7xx.
// Callers branch on GetCode or the Is* predicates rather than on messages.
package errors

import (
	"errors"
	"fmt"
)

// coded is implemented by every error of this package.
type coded interface {
	error
	errorCode() ErrorCode
}

// Error is an error with a code, a message and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func New(code ErrorCode, message string) *Error {
	return Wrap(code, message, nil)
}

func Newf(code ErrorCode, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches code and message to cause. cause may be nil.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// Error formats as "[code] message" followed by ": cause" when there is one.
func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}

	return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) errorCode() ErrorCode {
	return e.Code
}

// Is is errors.Is, re-exported so callers need only this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// GetCode returns the code of the outermost coded error in err's chain, or ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	var c coded
	if errors.As(err, &c) {
		return c.errorCode()
	}

	return ErrCodeUnknown
}

func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError reports that a series is shorter than the lookback an
// indicator or strategy needs. It is informational: the output is still returned
// with an undefined prefix.
type InsufficientDataError struct {
	Required int
	Actual   int
	Symbol   string
	Message  string
}

func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *InsufficientDataError) Error() string {
	return e.Message
}

func (e *InsufficientDataError) errorCode() ErrorCode {
	return ErrCodeInsufficientData
}

func IsInsufficientDataError(err error) bool {
	var insufficient *InsufficientDataError

	return errors.As(err, &insufficient)
}

// IsParameterInvalid reports whether err carries ErrCodeInvalidParameter.
func IsParameterInvalid(err error) bool {
	return HasCode(err, ErrCodeInvalidParameter)
}

// IsNoData reports whether err means the data source returned nothing usable.
func IsNoData(err error) bool {
	switch GetCode(err) {
	case ErrCodeNoDataFound, ErrCodeDataNotFound, ErrCodeDataSourceUnavailable:
		return true
	default:
		return false
	}
}
