package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrReferenceNotFound  = errors.New("reference not found")
	ErrValidation         = errors.New("validation error")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrSchedulingConflict = errors.New("scheduling conflict")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// Error carries the failing operation alongside one of the sentinel kinds above.
// errors.Is matches both the kind and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return Errorf(ErrValidation, format, args...)
}

func Preconditionf(format string, args ...any) error {
	return Errorf(ErrPreconditionFailed, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return Errorf(ErrReferenceNotFound, format, args...)
}

// Unavailable wraps an unexpected backing-store failure.
func Unavailable(err error) error {
	return &Error{Kind: ErrStoreUnavailable, Err: err}
}

// KindOf returns the sentinel kind of err, or ErrStoreUnavailable when err is
// not one of ours.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrDuplicateKey, ErrReferenceNotFound, ErrValidation, ErrPreconditionFailed,
		ErrInvalidTransition, ErrSchedulingConflict, ErrStoreUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrStoreUnavailable
}

// WithOp stamps op on err, converting foreign errors to ErrStoreUnavailable.
func WithOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		if de.Op != "" {
			return err
		}
		cp := *de
		cp.Op = op
		return &cp
	}
	return &Error{Op: op, Kind: ErrStoreUnavailable, Err: err}
}
