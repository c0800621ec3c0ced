package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "error without payload",
			err:      NewError(KindServer, "MP-TEST-1000", "test message"),
			expected: "[MP-TEST-1000] test message",
		},
		{
			name:     "error with payload",
			err:      NewError(KindValidation, "MP-TEST-1001", "test message").WithPayload(FieldPayload("amount", "bad")),
			expected: "[MP-TEST-1001] test message: bad",
		},
		{
			name:     "error with cause",
			err:      NewError(KindNetwork, "MP-TEST-1002", "test message").WithCause(fmt.Errorf("dial tcp: refused")),
			expected: "[MP-TEST-1002] test message: dial tcp: refused",
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

func TestError_IsMatchesByKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"invalid credentials is authentication", ErrInvalidCredentials, ErrAuthentication, true},
		{"session expired is authentication", ErrSessionExpired, ErrAuthentication, true},
		{"forbidden is authentication", ErrForbidden, ErrAuthentication, true},
		{"backend 400 is validation", ErrBackendValidation.WithStatus(400), ErrValidation, true},
		{"wrapped error keeps kind", fmt.Errorf("listing: %w", ErrSessionExpired), ErrAuthentication, true},
		{"authorization required is not authentication", ErrAuthorizationRequired, ErrAuthentication, false},
		{"network is not server", ErrNetwork, ErrServer, false},
		{"plain error never matches", fmt.Errorf("boom"), ErrUnexpected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}

	if errors.Is(ErrServer, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-domain targets")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := ErrNetwork.WithCause(cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if errors.Unwrap(ErrNetwork) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestError_CopiesDoNotMutateSentinel(t *testing.T) {
	_ = ErrBackendValidation.WithStatus(400).WithPayload(FieldPayload("name", "x")).WithCause(fmt.Errorf("c"))

	if ErrBackendValidation.Status != 0 {
		t.Error("WithStatus should not modify the sentinel")
	}
	if !ErrBackendValidation.Payload.IsZero() {
		t.Error("WithPayload should not modify the sentinel")
	}
	if ErrBackendValidation.Cause != nil {
		t.Error("WithCause should not modify the sentinel")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"validation", ErrValidation, KindValidation},
		{"wrapped network", fmt.Errorf("submit: %w", ErrNetwork), KindNetwork},
		{"foreign error", fmt.Errorf("boom"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", ErrSessionExpired)); got != "MP-AUTH-4011" {
		t.Errorf("CodeOf() = %q, want MP-AUTH-4011", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("CodeOf() = %q, want empty", got)
	}
	if !IsCode(ErrForbidden.WithStatus(403), ErrForbidden.Code) {
		t.Error("IsCode should match the specific code")
	}
	if IsCode(ErrInvalidCredentials, ErrSessionExpired.Code) {
		t.Error("IsCode should not match a sibling code of the same kind")
	}
}

func TestSentinelCodesAreUnique(t *testing.T) {
	all := []*Error{
		ErrValidation, ErrAuthentication, ErrAuthorizationRequired, ErrNotFound,
		ErrServer, ErrNetwork, ErrUnexpected, ErrBackendValidation,
		ErrInvalidCredentials, ErrSessionExpired, ErrForbidden, ErrMalformedResponse,
	}
	seen := make(map[string]bool)
	for _, e := range all {
		if seen[e.Code] {
			t.Errorf("duplicate error code %s", e.Code)
		}
		seen[e.Code] = true
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsgs int
	}{
		{"field errors", 400, `{"amount":["Ensure this value is greater than or equal to 0.01."]}`, "MP-VAL-4001", 1},
		{"not found", 404, `{"detail":"Not found."}`, "MP-SYS-4040", 0},
		{"server error", 500, `<html>boom</html>`, "MP-SYS-5000", 0},
		{"bad gateway", 502, `upstream down`, "MP-SYS-5000", 1},
		{"teapot", 418, ``, "MP-SYS-0000", 0},
		{"unauthorized is not classified here", 401, ``, "MP-SYS-0000", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus(tt.status, []byte(tt.body))
			if err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", err.Code, tt.wantCode)
			}
			if err.Status != tt.status {
				t.Errorf("Status = %d, want %d", err.Status, tt.status)
			}
			if n := len(err.Payload.Flatten()); n != tt.wantMsgs {
				t.Errorf("payload messages = %d, want %d", n, tt.wantMsgs)
			}
		})
	}
}
