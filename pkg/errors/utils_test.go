package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestIs_NilHandling(t *testing.T) {
	if Is(nil, nil) {
		t.Error("Is should return false for nil errors")
	}
	if Is(nil, errors.New("x")) {
		t.Error("nil should not match non-nil error")
	}
}

func TestAs(t *testing.T) {
	var target *Error
	if !As(Code("TEST_001").New("x").WithCause(errors.New("y")), &target) {
		t.Error("should return true when error matches target type")
	}

	var other *Error
	if As(errors.New("generic"), &other) {
		t.Error("should return false when error doesn't match target type")
	}
}

func TestJoin(t *testing.T) {
	joined := Join(errors.New("error 1"), nil, errors.New("error 2"))
	if joined == nil {
		t.Fatal("joined error should not be nil")
	}
	if !strings.Contains(joined.Error(), "error 1") || !strings.Contains(joined.Error(), "error 2") {
		t.Errorf("unexpected joined error: %v", joined)
	}
	if Join(nil, nil) != nil {
		t.Error("joined error should be nil when all inputs are nil")
	}
}
