package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers MUST use these instead of hardcoded strings.
// The prefix of each code selects its error family and HTTP status.
const (
	// Validation (400) -- caller input is malformed or incomplete.
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidJSON  ErrorCode = "validation_invalid_json"
	ErrCodeValidationBodyTooLarge ErrorCode = "validation_body_too_large"

	// Authentication -- webhook authenticity could not be established.
	ErrCodeAuthSignatureMissing ErrorCode = "auth_webhook_signature_missing"
	ErrCodeAuthSignatureInvalid ErrorCode = "auth_webhook_signature_invalid"

	// Upstream (502) -- the payment processor call failed.
	ErrCodeUpstreamStripe      ErrorCode = "upstream_stripe_unavailable"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamRejected    ErrorCode = "upstream_request_rejected"

	// Apply -- a verified event could not be applied to the document store.
	ErrCodeApplyMissingUserID    ErrorCode = "apply_missing_user_id"
	ErrCodeApplyStoreUnavailable ErrorCode = "apply_store_unavailable"
	ErrCodeApplyStoreWrite       ErrorCode = "apply_store_write_failed"
	ErrCodeApplyMalformedEvent   ErrorCode = "apply_malformed_event"

	// Internal (500)
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes as a safe default.
//
// Webhook signature failures are reported as 400 rather than 401: the caller
// is the payment processor, which treats any 4xx as a permanent rejection.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "auth_webhook_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "auth_"):
		return http.StatusUnauthorized
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	case strings.HasPrefix(s, "apply_"):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type used throughout the relay.
// Message is safe to show to callers; Err carries the internal cause and is
// only ever logged.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// IsValidation reports whether the error belongs to the validation family.
func (e *AppError) IsValidation() bool {
	return strings.HasPrefix(string(e.Code), "validation_")
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
