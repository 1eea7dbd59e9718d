package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *FetchError
		want string
	}{
		{
			name: "http status",
			err:  &FetchError{Kind: KindHTTPStatus, Page: 5, StatusCode: 503},
			want: "page 5: http_status error (status 503)",
		},
		{
			name: "wrapped cause",
			err:  &FetchError{Kind: KindTransport, Page: 2, Err: errors.New("connection refused")},
			want: "page 2: transport error: connection refused",
		},
		{
			name: "no cause",
			err:  &FetchError{Kind: KindTimeout, Page: 9},
			want: "page 9: timeout error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &FetchError{Kind: KindDecode, Page: 1, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestKind(t *testing.T) {
	fe := &FetchError{Kind: KindHTTPStatus, Page: 3, StatusCode: 404}
	wrapped := fmt.Errorf("%w after 3 attempts: %w", ErrRetryExhausted, fe)

	if got := Kind(wrapped); got != KindHTTPStatus {
		t.Errorf("Kind(wrapped) = %q, want %q", got, KindHTTPStatus)
	}
	if got := Kind(errors.New("plain")); got != "" {
		t.Errorf("Kind(plain) = %q, want empty", got)
	}
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline exceeded", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("do request: %w", context.DeadlineExceeded), KindTimeout},
		{"plain failure", errors.New("connection reset"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyTransportError(tt.err); got != tt.want {
				t.Errorf("classifyTransportError = %q, want %q", got, tt.want)
			}
		})
	}
}
