// Package domainerrors carries the error taxonomy shared by every ledger
// component and the HTTP boundary. Services return *Error values; transport
// code maps the Code to a status and a stable wire string.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies an error kind. The string value is part of the public API.
type Code string

const (
	// Ledger taxonomy.
	CodeUnauthorized          Code = "unauthorized"
	CodeInvalidAddress        Code = "invalid_address"
	CodeInvalidID             Code = "invalid_id"
	CodeNotRegistered         Code = "not_registered"
	CodeInsufficientBalance   Code = "insufficient_balance"
	CodeInsufficientAllowance Code = "insufficient_allowance"
	CodeCampaignExists        Code = "campaign_exists"
	CodeCampaignNotFound      Code = "campaign_not_found"
	CodeSignupNotFound        Code = "signup_not_found"
	CodeAlreadySignedUp       Code = "already_signed_up"
	CodeMintingFinished       Code = "minting_finished"
	CodeAlreadyFinished       Code = "already_finished"
	CodeInvalidAmount         Code = "invalid_amount"

	// Boundary and infrastructure.
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeRateLimited        Code = "rate_limit_exceeded"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. Err, when set, is the underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error. A nil err yields nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost coded error in err's chain has code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeInvalidAddress, CodeInvalidID, CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotRegistered, CodeInsufficientBalance, CodeInsufficientAllowance, CodeInvalidAmount:
		return http.StatusUnprocessableEntity
	case CodeCampaignExists, CodeAlreadySignedUp, CodeMintingFinished, CodeAlreadyFinished, CodeConflict:
		return http.StatusConflict
	case CodeCampaignNotFound, CodeSignupNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
