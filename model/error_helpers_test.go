package model

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestClassifyFetchErrorTLSMismatch(t *testing.T) {
	err := fmt.Errorf("fetch: %w", tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"})
	assert.Equal(t, ErrorTypeTLSMismatch, ClassifyFetchError(err))
}

func TestClassifyFetchErrorTimeout(t *testing.T) {
	assert.Equal(t, ErrorTypeTimeout, ClassifyFetchError(context.DeadlineExceeded))
	assert.Equal(t, ErrorTypeTimeout, ClassifyFetchError(fmt.Errorf("do: %w", timeoutNetError{})))
}

func TestClassifyFetchErrorConnection(t *testing.T) {
	assert.Equal(t, ErrorTypeConnectionFailed,
		ClassifyFetchError(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)))
	assert.Equal(t, ErrorTypeConnectionFailed,
		ClassifyFetchError(&net.DNSError{Err: "no such host", Name: "feeds.invalid"}))
}

func TestClassifyFetchErrorGeneric(t *testing.T) {
	assert.Equal(t, ErrorTypeNetwork, ClassifyFetchError(errors.New("something odd")))
}

func TestFetchErrorMessageClasses(t *testing.T) {
	assert.Contains(t, FetchErrorMessage(context.DeadlineExceeded), "timed out")
	assert.Contains(t, FetchErrorMessage(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)), "unable to reach")
	assert.Contains(t,
		FetchErrorMessage(tls.RecordHeaderError{Msg: "bad record"}), "TLS")
	assert.Contains(t, FetchErrorMessage(errors.New("boom")), "boom")
}

func TestFetchErrorMessageNilCause(t *testing.T) {
	assert.Equal(t, "network request failed", FetchErrorMessage(nil))
}

func TestCreateFetchErrorCarriesContext(t *testing.T) {
	cause := fmt.Errorf("dial: %w", syscall.ECONNREFUSED)
	fe := CreateFetchError(cause, "srv1", "http://example.test/query")

	assert.Equal(t, ErrorTypeConnectionFailed, fe.ErrorType)
	assert.Equal(t, "srv1", fe.ServerID)
	assert.Equal(t, "http://example.test/query", fe.URL)
	assert.Equal(t, "fetch_feeds", fe.Operation)
	assert.NotEmpty(t, fe.ID)
	assert.ErrorIs(t, fe, syscall.ECONNREFUSED)
}

func TestFeedErrorMessageFormat(t *testing.T) {
	fe := NewFeedError(ErrorTypeHTTP, "unexpected status").
		WithURL("http://example.test").
		WithHTTPStatus(503)
	msg := fe.Error()
	assert.Contains(t, msg, "unexpected status")
	assert.Contains(t, msg, "URL: http://example.test")
	assert.Contains(t, msg, "HTTP Status: 503")
	assert.Contains(t, msg, "Type: http")
}
