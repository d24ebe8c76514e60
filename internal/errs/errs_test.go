package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"pgregory.net/rapid"
)

var allCodes = []Code{
	InvalidArgument,
	NotFound,
	FailedPrecondition,
	PermissionDenied,
	Unavailable,
	FetchFailed,
	DeleteFailed,
	Internal,
}

func testCodeOf_RoundtripForTypedErrors(t *rapid.T) {
	code := rapid.SampledFrom(allCodes).Draw(t, "code")
	message := rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,80}`).Draw(t, "message")

	err := New(code, message)
	if got := CodeOf(err); got != code {
		t.Fatalf("CodeOf(New) mismatch: got=%q want=%q", got, code)
	}
	if got := MessageOf(err); got != message {
		t.Fatalf("MessageOf(New) mismatch: got=%q want=%q", got, message)
	}
	if !Is(err, code) {
		t.Fatalf("Is(%q) should be true", code)
	}
}

func TestCodeOf_RoundtripForTypedErrors(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCodeOf_RoundtripForTypedErrors)
}

func testCodeOfAndMessageOf_WrappedTypedError(t *rapid.T) {
	code := rapid.SampledFrom(allCodes).Draw(t, "code")
	message := rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,80}`).Draw(t, "message")
	cause := errors.New(rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,80}`).Draw(t, "cause"))

	err := Wrap(code, message, cause)
	wrapped := fmt.Errorf("outer: %w", err)

	if got := CodeOf(wrapped); got != code {
		t.Fatalf("CodeOf(wrapped) mismatch: got=%q want=%q", got, code)
	}
	if got := MessageOf(wrapped); got != message {
		t.Fatalf("MessageOf(wrapped) mismatch: got=%q want=%q", got, message)
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("wrapped error should unwrap to its cause")
	}
}

func TestCodeOfAndMessageOf_WrappedTypedError(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCodeOfAndMessageOf_WrappedTypedError)
}

func TestUntypedAndNilFallbacks(t *testing.T) {
	t.Parallel()
	untyped := errors.New("dial tcp: connection refused")

	if got := CodeOf(untyped); got != Internal {
		t.Fatalf("CodeOf(untyped) mismatch: got=%q want=%q", got, Internal)
	}
	if got := MessageOf(untyped); got != "internal error" {
		t.Fatalf("MessageOf(untyped) mismatch: got=%q", got)
	}
	if got := CodeOf(nil); got != Internal {
		t.Fatalf("CodeOf(nil) mismatch: got=%q want=%q", got, Internal)
	}
	if Is(nil, Internal) {
		t.Fatal("Is(nil, ...) should be false")
	}
}

func testCodeForStatus_Classification(t *rapid.T) {
	status := rapid.IntRange(100, 599).Draw(t, "status")
	got := CodeForStatus(status)

	switch {
	case status >= 200 && status < 300:
		if got != "" {
			t.Fatalf("2xx status %d should map to empty code, got %q", status, got)
		}
	case status == http.StatusNotFound:
		if got != NotFound {
			t.Fatalf("404 should map to not_found, got %q", got)
		}
	case status >= 500:
		if got != Unavailable {
			t.Fatalf("5xx status %d should map to unavailable, got %q", status, got)
		}
	default:
		if got == "" {
			t.Fatalf("non-2xx status %d should map to a code", status)
		}
	}
}

func TestCodeForStatus_Classification(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCodeForStatus_Classification)
}

func TestIs_FindsInnerCode(t *testing.T) {
	t.Parallel()
	inner := Wrap(NotFound, "service svc-1: status 404", errors.New("404"))
	outer := Wrap(DeleteFailed, "failed to delete service with ID svc-1", fmt.Errorf("attempt 1: %w", inner))

	if got := CodeOf(outer); got != DeleteFailed {
		t.Fatalf("CodeOf(outer) = %q, want %q", got, DeleteFailed)
	}
	for _, code := range []Code{DeleteFailed, NotFound} {
		if !Is(outer, code) {
			t.Fatalf("Is(outer, %q) = false, want true", code)
		}
	}
	if Is(outer, Unavailable) {
		t.Fatal("Is(outer, unavailable) should be false")
	}
	if !Is(errors.New("plain"), Internal) {
		t.Fatal("untyped errors should report internal")
	}
}
