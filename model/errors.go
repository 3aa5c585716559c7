package model

import (
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrorType represents different categories of errors that can occur
type ErrorType string

const (
	// ErrorTypeSourceUnavailable represents a single source failing; non-fatal
	ErrorTypeSourceUnavailable ErrorType = "source_unavailable"
	// ErrorTypeAllSourcesFailed represents every configured source failing
	ErrorTypeAllSourcesFailed ErrorType = "all_sources_failed"
	// ErrorTypeCacheMiss represents no valid cached data to fall back to
	ErrorTypeCacheMiss ErrorType = "cache_miss"

	// ErrorTypeTimeout represents request timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeConnectionFailed represents connection establishment failures
	ErrorTypeConnectionFailed ErrorType = "connection_failed"
	// ErrorTypeTLSMismatch represents a TLS/plaintext protocol mismatch
	ErrorTypeTLSMismatch ErrorType = "tls_mismatch"
	// ErrorTypeNetwork represents general network-related errors
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeHTTP represents non-2xx HTTP responses
	ErrorTypeHTTP ErrorType = "http"

	// ErrorTypeDownloadFailed represents a failed offline audio download
	ErrorTypeDownloadFailed ErrorType = "download_failed"
	// ErrorTypeIntegrity represents a zero-length downloaded file
	ErrorTypeIntegrity ErrorType = "integrity_violation"

	// ErrorTypeValidation represents URL or configuration validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeInternal represents internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// FeedError is a structured error carrying a classified type and enough
// context to log and surface a human-readable message.
type FeedError struct {
	ID        string    `json:"id"` // correlation ID for tracking
	Timestamp time.Time `json:"timestamp"`
	ErrorType ErrorType `json:"error_type"`
	Message   string    `json:"message"`

	URL        string `json:"url,omitempty"`
	ServerID   string `json:"server_id,omitempty"`
	Operation  string `json:"operation,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`

	Cause error `json:"-"` // original error, not serialized
}

// Error implements the error interface.
func (fe *FeedError) Error() string {
	var parts []string
	if fe.Message != "" {
		parts = append(parts, fe.Message)
	}
	if fe.URL != "" {
		parts = append(parts, fmt.Sprintf("URL: %s", fe.URL))
	}
	if fe.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation: %s", fe.Operation))
	}
	if fe.HTTPStatus != 0 {
		parts = append(parts, fmt.Sprintf("HTTP Status: %d", fe.HTTPStatus))
	}
	parts = append(parts, fmt.Sprintf("Type: %s", fe.ErrorType), fmt.Sprintf("ID: %s", fe.ID))
	return strings.Join(parts, " | ")
}

// Unwrap returns the underlying cause for error wrapping support.
func (fe *FeedError) Unwrap() error {
	return fe.Cause
}

// NewFeedError creates a FeedError with a fresh correlation ID.
func NewFeedError(errorType ErrorType, message string) *FeedError {
	id, _ := gonanoid.New()
	return &FeedError{
		ID:        id,
		Timestamp: time.Now().UTC(),
		ErrorType: errorType,
		Message:   message,
	}
}

// NewFeedErrorWithCause creates a FeedError wrapping an existing error.
func NewFeedErrorWithCause(errorType ErrorType, message string, cause error) *FeedError {
	fe := NewFeedError(errorType, message)
	fe.Cause = cause
	return fe
}

// WithURL adds URL context to the error.
func (fe *FeedError) WithURL(url string) *FeedError {
	fe.URL = url
	return fe
}

// WithServerID adds source provenance to the error.
func (fe *FeedError) WithServerID(serverID string) *FeedError {
	fe.ServerID = serverID
	return fe
}

// WithOperation adds operation context to the error.
func (fe *FeedError) WithOperation(operation string) *FeedError {
	fe.Operation = operation
	return fe
}

// WithHTTPStatus adds the HTTP status code that triggered the error.
func (fe *FeedError) WithHTTPStatus(status int) *FeedError {
	fe.HTTPStatus = status
	return fe
}
