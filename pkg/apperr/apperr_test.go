package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if KindOf(New(KindNotFound, "material not found")) != KindNotFound {
		t.Fatalf("expected KindNotFound")
	}
	if KindOf(errors.New("plain")) != KindUnexpected {
		t.Fatalf("expected KindUnexpected for foreign error")
	}
	if KindOf(nil) != KindUnexpected {
		t.Fatalf("expected KindUnexpected for nil")
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := New(KindDuplicateCode, "code taken")
	outer := fmt.Errorf("creating material: %w", inner)
	if KindOf(outer) != KindDuplicateCode {
		t.Fatalf("expected kind to survive wrapping")
	}
	if !IsDuplicateCode(outer) {
		t.Fatalf("expected IsDuplicateCode for wrapped error")
	}
}

func TestIsHelpers(t *testing.T) {
	if !IsNoTenantContext(New(KindNoTenantContext, "no tenant in context")) {
		t.Fatalf("expected IsNoTenantContext")
	}
	if IsNotFound(New(KindValidation, "bad input")) {
		t.Fatalf("kind mismatch should not match")
	}
	if IsAuthFailure(nil) {
		t.Fatalf("expected false for nil")
	}
}

func TestMessage(t *testing.T) {
	if Message(Newf(KindValidation, "waste_rate %d out of range", 120)) != "waste_rate 120 out of range" {
		t.Fatalf("unexpected message")
	}
	if Message(errors.New("boom")) != "internal error" {
		t.Fatalf("foreign errors must not leak their message")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindUnexpected, "claiming counter", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected unwrap to reach cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, 400},
		{KindIllegalTransition, 400},
		{KindAuthFailure, 401},
		{KindApplicationDisabled, 403},
		{KindNotFound, 404},
		{KindDuplicateCode, 409},
		{KindConcurrentTransition, 409},
		{KindReferentialIntegrity, 409},
		{KindUnexpected, 500},
	}
	for _, tc := range cases {
		if got := HTTPStatus(New(tc.kind, "x")); got != tc.want {
			t.Fatalf("%v: got %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestHTTPStatusNoTenantContext(t *testing.T) {
	// A missing tenant inside a handler is a programming error, not an
	// authorization outcome; it must surface as a server error.
	if got := HTTPStatus(New(KindNoTenantContext, "no tenant in context")); got < 500 {
		t.Fatalf("NoTenantContext mapped to %d, want a server error", got)
	}
	if HTTPStatus(errors.New("boom")) != 500 {
		t.Fatalf("foreign errors must map to 500")
	}
}
