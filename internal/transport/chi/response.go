package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/bookrec/internal/domain"
)

// ErrorCode is a machine-readable error code in JSON error bodies.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeInvalidQuery     ErrorCode = "invalid_query"
	ErrorCodeEmbeddingFailure ErrorCode = "embedding_provider_error"
	ErrorCodeInternal         ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorStatus describes how a domain error is reported.
type errorStatus struct {
	status  int
	code    ErrorCode
	message string // shown in the HTML fragment
}

// errorTable is checked in order; the first matching sentinel wins.
var errorTable = []struct {
	sentinel error
	errorStatus
}{
	{domain.ErrInvalidQuery, errorStatus{
		http.StatusBadRequest, ErrorCodeInvalidQuery,
		"Please enter a description and choose a listed category and tone.",
	}},
	{domain.ErrEmbeddingProviderError, errorStatus{
		http.StatusBadGateway, ErrorCodeEmbeddingFailure,
		"The embedding service is unavailable right now. Please try again.",
	}},
}

var internalError = errorStatus{
	http.StatusInternalServerError, ErrorCodeInternal,
	"Something went wrong while finding recommendations.",
}

func classify(err error) (errorStatus, error) {
	for _, e := range errorTable {
		if errors.Is(err, e.sentinel) {
			return e.errorStatus, e.sentinel
		}
	}
	return internalError, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
