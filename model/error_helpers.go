package model

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"syscall"
)

// ClassifyFetchError categorizes a transport error from any source client
// implementation into one of the recognized error types. Classification works
// on error types and errno values, never on implementation-specific message
// strings, so it holds across client implementations.
func ClassifyFetchError(err error) ErrorType {
	switch {
	case err == nil:
		return ErrorTypeNetwork
	case isTLSMismatchError(err):
		return ErrorTypeTLSMismatch
	case isTimeoutError(err):
		return ErrorTypeTimeout
	case isConnectionError(err):
		return ErrorTypeConnectionFailed
	default:
		return ErrorTypeNetwork
	}
}

// FetchErrorMessage renders the human-readable message surfaced to the caller
// when a degraded fetch falls back to cached data.
func FetchErrorMessage(err error) string {
	switch ClassifyFetchError(err) {
	case ErrorTypeTLSMismatch:
		return "TLS connection failed: the server may not speak HTTPS, check whether the API URL should use plain HTTP"
	case ErrorTypeTimeout:
		return "connection timed out: the server did not respond in time, check the network connection"
	case ErrorTypeConnectionFailed:
		return "connection failed: unable to reach the server, check network, proxy settings and the API URL"
	default:
		if err == nil {
			return "network request failed"
		}
		return "network request failed: " + err.Error()
	}
}

// CreateFetchError builds the structured error for a failed source fetch.
func CreateFetchError(err error, serverID, url string) *FeedError {
	return NewFeedErrorWithCause(ClassifyFetchError(err), FetchErrorMessage(err), err).
		WithServerID(serverID).
		WithURL(url).
		WithOperation("fetch_feeds")
}

// CreateDownloadError builds the structured error for a failed offline audio
// download. A zero-length transfer is an integrity violation; everything else
// is a plain download failure.
func CreateDownloadError(errorType ErrorType, message string, cause error, url string) *FeedError {
	return NewFeedErrorWithCause(errorType, message, cause).
		WithURL(url).
		WithOperation("download_audio")
}

// isTLSMismatchError detects an HTTPS handshake against a plaintext server.
func isTLSMismatchError(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	return errors.As(err, &certErr)
}

// isTimeoutError checks if the error is related to timeouts.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isConnectionError checks if the error is a connection establishment or
// reachability failure.
func isConnectionError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED,
		syscall.EHOSTUNREACH, syscall.ENETUNREACH,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
