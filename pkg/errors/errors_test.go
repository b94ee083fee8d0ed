package errors

import (
	stderrors "errors"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeAuth, "login failed")
	if err.Error() != "auth error: login failed" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	cause := stderrors.New("bad password")
	wrapped := Wrap(ErrorTypeAuth, "login failed", cause)
	if wrapped.Error() != "auth error: login failed: bad password" {
		t.Errorf("unexpected message: %q", wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("timeout")
	err := Wrap(ErrorTypeNavigation, "navigation failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}

	var typed *Error
	if !stderrors.As(error(err), &typed) || typed.Type != ErrorTypeNavigation {
		t.Error("errors.As should recover the typed error")
	}
}

func TestIsFatal(t *testing.T) {
	fatal := []ErrorType{ErrorTypeConfig, ErrorTypeNavigation, ErrorTypeAuth}
	for _, typ := range fatal {
		if !IsFatal(typ) {
			t.Errorf("%s should be fatal", typ)
		}
	}

	recoverable := []ErrorType{ErrorTypeExtraction, ErrorTypeCheckpointIO, ErrorTypeSinkIO, ErrorTypeUnknown}
	for _, typ := range recoverable {
		if IsFatal(typ) {
			t.Errorf("%s should not be fatal", typ)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrorTypeNavigation) {
		t.Error("navigation errors should be retryable")
	}
	for _, typ := range []ErrorType{ErrorTypeConfig, ErrorTypeAuth, ErrorTypeExtraction, ErrorTypeSinkIO} {
		if IsRetryable(typ) {
			t.Errorf("%s should not be retryable", typ)
		}
	}
}
