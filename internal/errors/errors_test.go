package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestPromptError_Error(t *testing.T) {
	err := &PromptError{
		Code:    ErrNotFound,
		Message: "prompt not found",
	}

	expected := "NOT_FOUND: prompt not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("id is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Message != "id is required" {
		t.Errorf("Message = %q, want %q", err.Message, "id is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("user:1234")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Details["identifier"] != "user:1234" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "user:1234")
	}
}

func TestNewPermissionDenied(t *testing.T) {
	err := NewPermissionDenied("builtin:CommitMessage", "deleted")

	if err.Code != ErrPermissionDenied {
		t.Errorf("Code = %q, want %q", err.Code, ErrPermissionDenied)
	}
	if err.Details["action"] != "deleted" {
		t.Errorf("Details[action] = %v, want %q", err.Details["action"], "deleted")
	}
	want := "PERMISSION_DENIED: built-in prompt builtin:CommitMessage cannot be deleted"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestNewStorageFailure(t *testing.T) {
	cause := fmt.Errorf("disk I/O error")
	err := NewStorageFailure("commit", cause)

	if err.Code != ErrStorageFailure {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorageFailure)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true (Unwrap)")
	}
	if err.Message != "commit: disk I/O error" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("search")

	if err.Code != ErrCancelled {
		t.Errorf("Code = %q, want %q", err.Code, ErrCancelled)
	}
	if err.Message != "search cancelled" {
		t.Errorf("Message = %q, want %q", err.Message, "search cancelled")
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("boom"))
		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Message != "boom" {
			t.Errorf("Message = %q, want %q", err.Message, "boom")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)
		if err.Message != "internal error" {
			t.Errorf("Message = %q, want %q", err.Message, "internal error")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		if !Is(NewNotFound("x"), ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		if Is(NewNotFound("x"), ErrPermissionDenied) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrNotFound) {
			t.Error("Is() = true, want false for plain error")
		}
	})

	t.Run("wrapped PromptError", func(t *testing.T) {
		wrapped := fmt.Errorf("items[0]: %w", NewNotFound("x"))
		if !Is(wrapped, ErrNotFound) {
			t.Error("Is() = false, want true for wrapped PromptError")
		}
	})
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewCancelled("search")); got != ErrCancelled {
		t.Errorf("CodeOf = %q, want %q", got, ErrCancelled)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != ErrInternal {
		t.Errorf("CodeOf(plain) = %q, want %q", got, ErrInternal)
	}
}
