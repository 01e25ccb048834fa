package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	if MetadataFor(CodeNotFound).HTTPStatus != http.StatusNotFound {
		t.Fatal("not found should map to 404")
	}
	if MetadataFor(Code("UNKNOWN")).HTTPStatus != http.StatusInternalServerError {
		t.Fatal("unknown codes should map to 500")
	}
	if !MetadataFor(CodeDependency).Retryable {
		t.Fatal("dependency failures should be retryable")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "stripe unavailable")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped cause should be discoverable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %q", err.Code())
	}
	if err.Error() != "DEPENDENCY_ERROR: stripe unavailable" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAs(t *testing.T) {
	typed := New(CodeForbidden, "not the owner")
	wrapped := Wrap(CodeInternal, typed, "settlement failed")

	if got := As(wrapped); got == nil || got.Code() != CodeInternal {
		t.Fatalf("expected outermost typed error, got %v", got)
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors should not convert")
	}
}

func TestDumpChain(t *testing.T) {
	err := Wrap(CodeValidation, stdErrors.New("amount must be positive"), "bad offer")
	d := Dump(err)
	if d.Code != CodeValidation {
		t.Fatalf("unexpected code %q", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
}
