package upstream

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   ErrorClass
	}{
		{"success 200", 200, ""},
		{"no content 204", 204, ""},
		{"redirect 302", 302, ErrorClassUnexpected},
		{"client error 401", 401, ErrorClassClient},
		{"client error 404", 404, ErrorClassClient},
		{"server error 500", 500, ErrorClassServer},
		{"server error 503", 503, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStatus(tt.statusCode); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "status error",
			err: &Error{
				Source:     "dribbble",
				StatusCode: 401,
				ErrorClass: ErrorClassClient,
				Message:    "Unauthorized",
			},
			expected: "dribbble client error (status 401): Unauthorized",
		},
		{
			name: "network error with wrapped error",
			err: &Error{
				Source:     "youtube",
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        io.ErrUnexpectedEOF,
			},
			expected: "youtube network error: request failed: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Source: "behance", ErrorClass: ErrorClassNetwork, Err: io.EOF}
	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestCheckStatus(t *testing.T) {
	ok := &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader("{}"))}
	if err := CheckStatus("dribbble", ok); err != nil {
		t.Errorf("CheckStatus(200) = %v, want nil", err)
	}

	longBody := strings.Repeat("x", 4*maxErrorBody)
	failed := &http.Response{
		StatusCode: 403,
		Body:       io.NopCloser(strings.NewReader(longBody)),
	}

	err := CheckStatus("behance", failed)
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("CheckStatus(403) = %v, want *Error", err)
	}
	if upErr.StatusCode != 403 || upErr.ErrorClass != ErrorClassClient {
		t.Errorf("got status %d class %q", upErr.StatusCode, upErr.ErrorClass)
	}
	if len(upErr.Body) != maxErrorBody {
		t.Errorf("len(Body) = %d, want %d", len(upErr.Body), maxErrorBody)
	}
	if upErr.Message != "Forbidden" {
		t.Errorf("Message = %q", upErr.Message)
	}
}

func TestDecodeError(t *testing.T) {
	err := DecodeError("youtube", io.ErrUnexpectedEOF)

	var upErr *Error
	if !errors.As(err, &upErr) || upErr.ErrorClass != ErrorClassDecode {
		t.Fatalf("DecodeError = %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("DecodeError should wrap the cause")
	}
}
