package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := map[Code]Metadata{
		CodeValidation:    {http.StatusBadRequest, false, "validation failed", true},
		CodeUnauthorized:  {http.StatusUnauthorized, false, "authentication required", false},
		CodeForbidden:     {http.StatusForbidden, false, "access denied", false},
		CodeNotFound:      {http.StatusNotFound, false, "resource not found", false},
		CodeConflict:      {http.StatusConflict, false, "conflict detected", false},
		CodeStateConflict: {http.StatusUnprocessableEntity, false, "state transition disallowed", true},
		CodeIdempotency:   {http.StatusConflict, false, "idempotency key reused", true},
		CodeRateLimit:     {http.StatusTooManyRequests, false, "rate limit exceeded", false},
		CodePayment:       {http.StatusUnprocessableEntity, false, "payment declined", true},
		CodeInternal:      {http.StatusInternalServerError, true, "internal server error", false},
		CodeDependency:    {http.StatusServiceUnavailable, true, "dependency unavailable", true},
	}

	for code, want := range tests {
		t.Run(string(code), func(t *testing.T) {
			got := MetadataFor(code)
			if got != want {
				t.Fatalf("metadata mismatch: got %+v want %+v", got, want)
			}
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
	if meta.PublicMessage != "internal server error" {
		t.Fatalf("unexpected public message %q", meta.PublicMessage)
	}
}

func TestNewAndWithDetails(t *testing.T) {
	err := New(CodeValidation, "missing foo")
	if err.Code() != CodeValidation || err.Message() != "missing foo" {
		t.Fatalf("unexpected code/message: %s / %q", err.Code(), err.Message())
	}
	if err.Details() != nil {
		t.Fatal("details should start nil")
	}

	err.WithDetails(map[string]any{"field": "foo"})
	if err.Details() == nil {
		t.Fatal("details not retained")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	wrapped := Wrap(CodeDependency, cause, "fetching price rates")

	if !stdErrors.Is(wrapped, cause) {
		t.Fatal("wrapped error lost its cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if Wrap(CodeConflict, nil, "no cause").Unwrap() != nil {
		t.Fatal("Wrap with nil cause should behave like New")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	if typed := As(New(CodeForbidden, "no entry")); typed == nil || typed.Code() != CodeForbidden {
		t.Fatalf("As failed to recover typed error: %v", typed)
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("As should return nil for untyped errors")
	}
	if As(nil) != nil {
		t.Fatal("As(nil) should be nil")
	}
}
