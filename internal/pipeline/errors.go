package pipeline

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/tolego/internal/output"
)

// Kind classifies pipeline failures.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors not raised by the pipeline.
	KindUnknown Kind = iota
	KindInvalidConfig
	KindSourceNotFound
	KindBrickAssetMissing
	KindDecode
	KindEncode
	KindOptimize
)

// String returns the name used in logs.
func (k Kind) String() string {
	switch k {
	case KindInvalidConfig:
		return "invalid config"
	case KindSourceNotFound:
		return "source not found"
	case KindBrickAssetMissing:
		return "brick asset missing"
	case KindDecode:
		return "decode error"
	case KindEncode:
		return "encode error"
	case KindOptimize:
		return "optimize error"
	default:
		return "unknown"
	}
}

// Error is the error type returned by Run.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, &pipeline.Error{Kind: pipeline.KindDecode}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Path == "" && t.Err == nil
}

// Recoverable reports whether a usable output file exists despite the error.
func (e *Error) Recoverable() bool {
	var fallback *output.FallbackError
	return e.Kind == KindOptimize && errors.As(e.Err, &fallback)
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
