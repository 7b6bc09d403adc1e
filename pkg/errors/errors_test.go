package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := New("TEST", "failed", http.StatusInternalServerError).WithInternal(internal)

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}
	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}
	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New("store.write_failed", "write failed", http.StatusInternalServerError)
	cause := stdErrors.New("disk full")

	wrapped := fmt.Errorf("save: %w", sentinel.WithInternal(cause))

	if !stdErrors.Is(wrapped, sentinel) {
		t.Fatal("expected wrapped copy to match sentinel")
	}
	if !stdErrors.Is(wrapped, cause) {
		t.Fatal("expected wrapped copy to expose its internal cause")
	}
	if stdErrors.Is(wrapped, ErrNotFound) {
		t.Fatal("expected different codes not to match")
	}
}

func TestWithMessageKeepsCode(t *testing.T) {
	custom := ErrNotFound.WithMessage("combination not found")

	if custom.Code != ErrNotFound.Code || custom.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected copy: %+v", custom)
	}
	if ErrNotFound.Message == custom.Message {
		t.Fatal("expected sentinel message to remain unchanged")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")
	if err.Code != ErrBadRequest.Code {
		t.Fatalf("expected %s, got %s", ErrBadRequest.Code, err.Code)
	}
	if err.Message != "invalid payload" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != ErrBadRequest.StatusCode {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
}
