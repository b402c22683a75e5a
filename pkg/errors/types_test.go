package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeRetrievalFailed, "endpoint unreachable")

	if err.Code != ErrCodeRetrievalFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeRetrievalFailed)
	}
	if !strings.Contains(err.Error(), "RETRIEVAL_FAILED") {
		t.Errorf("Error() = %q, missing code", err.Error())
	}
	if err.IsRetryable() {
		t.Error("new errors should not be retryable by default")
	}
}

func TestWrap(t *testing.T) {
	underlying := stderrors.New("connection refused")
	err := Wrap(underlying, ErrCodeGatewayUnavailable, "chat completion failed")

	if !stderrors.Is(err, underlying) {
		t.Error("wrapped error should unwrap to underlying")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, missing underlying message", err.Error())
	}

	if Wrap(nil, ErrCodeInternal, "nope") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWithContext(t *testing.T) {
	err := New(ErrCodeGatewayStatus, "bad status").
		WithContext("status", 503).
		WithRetryable(true)

	if !strings.Contains(err.Error(), "status: 503") {
		t.Errorf("Error() = %q, missing context", err.Error())
	}
	if !err.IsRetryable() {
		t.Error("expected retryable")
	}
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching_code", New(ErrCodeRetrievalStatus, "x"), ErrCodeRetrievalStatus, true},
		{"different_code", New(ErrCodeRetrievalStatus, "x"), ErrCodeGatewayStatus, false},
		{"plain_error", stderrors.New("x"), ErrCodeInternal, false},
		{"nil_error", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetrieval(t *testing.T) {
	if !IsRetrieval(New(ErrCodeRetrievalDecode, "bad body")) {
		t.Error("decode errors are retrieval errors")
	}
	if IsRetrieval(New(ErrCodeGatewayUnavailable, "down")) {
		t.Error("gateway errors are not retrieval errors")
	}
	if IsRetrieval(nil) {
		t.Error("nil is not a retrieval error")
	}
}
