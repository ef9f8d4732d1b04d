package http_test

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"testing"

	httpmod "github.com/NamanBalaji/signedplay/pkg/http"
)

// fakeNetErr simulates a net.Error to test ClassifyError behavior.
type fakeNetErr struct{ timeout bool }

func (f *fakeNetErr) Error() string   { return "simulated network error" }
func (f *fakeNetErr) Timeout() bool   { return f.timeout }
func (f *fakeNetErr) Temporary() bool { return false }

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"NotFound 404", 404, httpmod.ErrResourceNotFound},
		{"Forbidden 403", 403, httpmod.ErrAccessDenied},
		{"Unauthorized 401", 401, httpmod.ErrAuthentication},
		{"Gone 410", 410, httpmod.ErrGone},
		{"RangeNotSatisfiable 416", 416, httpmod.ErrRangesNotSupported},
		{"TooManyRequests 429", 429, httpmod.ErrTooManyRequests},
		{"ServerError 500", 500, httpmod.ErrServerProblem},
		{"ServerError 503", 503, httpmod.ErrServerProblem},
		{"ClientError 450", 450, httpmod.ErrClientRequest},
		{"ClientError 400", 400, httpmod.ErrClientRequest},
		{"NotModified 304", 304, httpmod.ErrUnexpectedStatus},
		{"Informational 100", 100, httpmod.ErrUnexpectedStatus},
		{"OK 200", 200, nil},
		{"PartialContent 206", 206, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := httpmod.ClassifyHTTPError(tt.statusCode)
			if tt.wantErr == nil {
				if got != nil {
					t.Errorf("ClassifyHTTPError(%d) = %v; want nil", tt.statusCode, got)
				}
				return
			}
			if !errors.Is(got, tt.wantErr) {
				t.Errorf("ClassifyHTTPError(%d) = %v; want %v", tt.statusCode, got, tt.wantErr)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name    string
		input   error
		wantErr error
	}{
		{"Nil error", nil, nil},
		{"ContextCanceled", context.Canceled, context.Canceled},
		{"DeadlineExceeded", context.DeadlineExceeded, httpmod.ErrTimeout},
		{"EOF", io.EOF, httpmod.ErrUnexpectedEOF},
		{"UnexpectedEOF", io.ErrUnexpectedEOF, httpmod.ErrUnexpectedEOF},
		{"NetError", &fakeNetErr{}, httpmod.ErrNetworkProblem},
		{"NetTimeout", &fakeNetErr{timeout: true}, httpmod.ErrTimeout},
		{"UnknownAuthority", fmt.Errorf("get: %w", x509.UnknownAuthorityError{}), httpmod.ErrTLSHandshake},
		{"UntrustedServer", fmt.Errorf("get: %w", httpmod.ErrUntrustedServer), httpmod.ErrTLSHandshake},
		{"Other", errors.New("boom"), httpmod.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := httpmod.ClassifyError(tt.input)
			if tt.wantErr == nil {
				if got != nil {
					t.Errorf("ClassifyError(%v) = %v; want nil", tt.input, got)
				}
				return
			}
			if !errors.Is(got, tt.wantErr) {
				t.Errorf("ClassifyError(%v) = %v; want %v", tt.input, got, tt.wantErr)
			}
		})
	}
}

func TestIsSuccess(t *testing.T) {
	for _, code := range []int{200, 204, 206, 299} {
		if !httpmod.IsSuccess(code) {
			t.Errorf("IsSuccess(%d) = false; want true", code)
		}
	}
	for _, code := range []int{199, 300, 404, 500} {
		if httpmod.IsSuccess(code) {
			t.Errorf("IsSuccess(%d) = true; want false", code)
		}
	}
}
