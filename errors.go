package deepzoom

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error raised by the core so a host can branch on it
// without a type assertion.
type Kind int

const (
	// KindInvalidViewport is returned when a viewport has a non-finite or
	// non-positive width/height.
	KindInvalidViewport Kind = iota
	// KindPrecisionOverflow classifies a required mantissa bit count above
	// the 2^20 cap. No core function returns it: RequiredPrecisionBits
	// clamps its result to the cap instead.
	KindPrecisionOverflow
	// KindParseError is returned by BigFloat.FromString on a malformed
	// decimal string.
	KindParseError
	// KindWorkerCrash is returned when a worker fails to compute a tile
	// after its retry budget is exhausted.
	KindWorkerCrash
	// KindTileError wraps a single tile compute failure before a retry.
	KindTileError
	// KindCancelledStale marks a result that arrived after its render_id
	// was bumped; never returned as an error, only used with Is.
	KindCancelledStale
)

func (k Kind) String() string {
	switch k {
	case KindInvalidViewport:
		return "invalid viewport"
	case KindPrecisionOverflow:
		return "precision overflow"
	case KindParseError:
		return "parse error"
	case KindWorkerCrash:
		return "worker crash"
	case KindTileError:
		return "tile error"
	case KindCancelledStale:
		return "cancelled stale"
	default:
		return "unknown"
	}
}

// Error is the concrete error type for every sentinel raised by the core.
// It wraps an underlying cause (via github.com/pkg/errors) so callers get a
// stack trace at the point the error kind was first raised.
type Error struct {
	Kind Kind
	msg  string
	// cause is the wrapped lower-level error, if any. It is produced with
	// errors.Wrap so Cause()/StackTrace() keep working through Is checks.
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// newError builds a *Error wrapped with github.com/pkg/errors so stack
// traces survive for debugging, matching the wrap-then-inspect idiom used
// throughout xtaci-kcptun's client/server entry points.
func newError(kind Kind, cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	var wrapped error
	if cause != nil {
		wrapped = errors.Wrap(cause, msg)
	}
	return &Error{Kind: kind, msg: msg, cause: wrapped}
}

// Is reports whether err is a *Error of the given kind, unwrapping through
// any github.com/pkg/errors wrapping in between.
func Is(err error, kind Kind) bool {
	for err != nil {
		if de, ok := err.(*Error); ok {
			return de.Kind == kind
		}
		cause := errors.Cause(err)
		if cause == err {
			return false
		}
		err = cause
	}
	return false
}
