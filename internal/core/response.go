package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// maxRequestBodySize caps JSON request bodies (the checkout intent is tiny).
const maxRequestBodySize = 16 << 10

const genericInternalMessage = "an unexpected error occurred"

// ErrorResponse is the body of every error response. Error keeps the flat
// string shape the client application already reads.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// JSON marshals data and writes it with the given status. A marshal failure
// becomes a generic 500.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:     "failed to marshal response",
			Code:      string(types.ErrCodeInternalUnexpected),
			RequestID: types.GetRequestID(r.Context()),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error renders err. A *types.AppError anywhere in the chain supplies the
// status, code and caller-safe message; anything else becomes a generic 500.
// Wrapped causes are never written to the response.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	requestID := types.GetRequestID(r.Context())

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		JSON(w, r, appErr.HTTPStatus(), ErrorResponse{
			Error:     appErr.Message,
			Code:      string(appErr.Code),
			Details:   appErr.Details,
			RequestID: requestID,
		})
		return
	}

	JSON(w, r, http.StatusInternalServerError, ErrorResponse{
		Error:     genericInternalMessage,
		Code:      string(types.ErrCodeInternalUnexpected),
		RequestID: requestID,
	})
}

// DecodeJSON reads a single JSON value from the request body into dst.
// Unknown fields are ignored so older and newer clients can share the
// endpoint. Failures are returned as validation_* AppErrors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return mapDecodeError(err)
	}
	if dec.More() {
		return types.NewAppError(types.ErrCodeValidationInvalidJSON,
			"request body must contain a single JSON object", nil)
	}
	return nil
}

func mapDecodeError(err error) *types.AppError {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return types.NewAppError(types.ErrCodeValidationBodyTooLarge, "request body is too large", err)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return types.NewAppError(types.ErrCodeValidationInvalidJSON, "malformed JSON in request body", err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidJSON, "invalid value for field", err,
			map[string]any{"field": typeErr.Field, "expected": typeErr.Type.String()})
	}

	if errors.Is(err, io.EOF) {
		return types.NewAppError(types.ErrCodeValidationInvalidJSON, "request body must not be empty", err)
	}

	return types.NewAppError(types.ErrCodeValidationInvalidJSON, "invalid JSON in request body", err)
}
