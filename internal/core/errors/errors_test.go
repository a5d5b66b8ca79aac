package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughNestedDomainErrors", func(t *testing.T) {
		inner := New(CodeAuthRequired, "missing key")
		outer := Wrap(inner, CodeUpstreamFailed, "completion failed")
		if !IsCode(outer, CodeAuthRequired) {
			t.Error("expected nested auth code to be visible")
		}
		if CodeOf(outer) != CodeUpstreamFailed {
			t.Errorf("expected outermost code UPSTREAM_FAILED, got %s", CodeOf(outer))
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("annotate a.py: %w", New(CodeExtractionInconsistent, "column out of range"))
		if !IsCode(err, CodeExtractionInconsistent) {
			t.Error("expected code to survive fmt wrapping")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeDecodeFailed, "bad payload"), CtxPath, "a.py")
		var de *DomainError
		if !errors.As(err, &de) || de.Context[CtxPath] != "a.py" {
			t.Fatalf("expected path context, got %v", err)
		}

		plain := AddContext(errors.New("boom"), CtxPath, "b.py")
		if CodeOf(plain) != CodeInternal {
			t.Fatalf("expected plain errors to be wrapped as internal, got %s", CodeOf(plain))
		}
	})
}

func TestRecoverable(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want bool
	}{
		{CodeUnsupportedLanguage, true},
		{CodeUnsupportedEncoding, true},
		{CodeGrammarUnavailable, true},
		{CodeDecodeFailed, false},
		{CodeExtractionInconsistent, false},
		{CodeAuthRequired, false},
	}
	for _, tc := range cases {
		if got := Recoverable(New(tc.code, "x")); got != tc.want {
			t.Errorf("Recoverable(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
	if Recoverable(errors.New("plain")) {
		t.Error("plain errors must not be recoverable")
	}
}
