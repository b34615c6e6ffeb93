package deepzoom

import (
	"errors"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := newError(KindWorkerCrash, nil, "boom")
	if !Is(err, KindWorkerCrash) {
		t.Error("Is should match the error's own kind")
	}
	if Is(err, KindTileError) {
		t.Error("Is should not match a different kind")
	}
}

func TestIsFalseForPlainError(t *testing.T) {
	if Is(errors.New("plain"), KindWorkerCrash) {
		t.Error("Is should return false for a non-*Error")
	}
}

func TestIsFalseForNil(t *testing.T) {
	if Is(nil, KindWorkerCrash) {
		t.Error("Is(nil, ...) should be false")
	}
}

func TestErrorUnwrapReachesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := newError(KindTileError, cause, "tile failed")
	if errors.Unwrap(err) == nil {
		t.Error("Unwrap should expose the wrapped cause")
	}
}

func TestKindStringIsStable(t *testing.T) {
	tests := map[Kind]string{
		KindInvalidViewport:   "invalid viewport",
		KindPrecisionOverflow: "precision overflow",
		KindParseError:        "parse error",
		KindWorkerCrash:       "worker crash",
		KindTileError:         "tile error",
		KindCancelledStale:    "cancelled stale",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", k, got, want)
		}
	}
}
