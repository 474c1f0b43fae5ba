package upstream

import (
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of a failed response body is kept for logs.
const maxErrorBody = 512

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx answers.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx answers.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport errors and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 2xx answer whose payload could not be parsed.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassUnexpected represents other non-2xx answers (1xx, 3xx).
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// Error is an upstream failure with enough context to log it.
type Error struct {
	Source     string
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s error", e.Source, e.ErrorClass)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// CheckStatus returns nil for 2xx responses. Otherwise it drains and closes
// the body and returns an *Error carrying the status and a body excerpt.
func CheckStatus(source string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)

	return &Error{
		Source:     source,
		StatusCode: resp.StatusCode,
		ErrorClass: classifyStatus(resp.StatusCode),
		Message:    http.StatusText(resp.StatusCode),
		Body:       string(excerpt),
	}
}

// DecodeError wraps a payload parsing failure.
func DecodeError(source string, err error) error {
	return &Error{
		Source:     source,
		StatusCode: http.StatusOK,
		ErrorClass: ErrorClassDecode,
		Message:    "decode payload",
		Err:        err,
	}
}

// classifyStatus categorizes a status code; "" for 2xx.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 200 && status < 300:
		return ""
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}
