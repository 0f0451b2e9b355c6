package diskann

import (
	"errors"
	"testing"
)

func TestFormatErrorUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("truncated stream")
	err := error(&FormatError{Msg: "short read", Cause: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(%v, %v) = false, want true", err, cause)
	}

	bare := error(&FormatError{Msg: "bad magic"})
	if errors.Unwrap(bare) != nil {
		t.Fatalf("Unwrap of a causeless FormatError = %v, want nil", errors.Unwrap(bare))
	}
}

func TestPreconditionViolationUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying failure")
	err := error(&PreconditionViolation{Msg: "mapping rejected", Cause: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(%v, %v) = false, want true", err, cause)
	}
}
