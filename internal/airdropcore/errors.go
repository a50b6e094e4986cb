package airdropcore

import (
	"errors"
	"fmt"
)

// Kind classifies failures by how far they propagate.
type Kind string

const (
	// KindInputValidation: malformed address or amount, rejected before batching.
	KindInputValidation Kind = "InputValidation"
	// KindResolverUnavailable: fee or eligibility could not be read. Aborts the run.
	KindResolverUnavailable Kind = "ResolverUnavailable"
	// KindAllowanceFailure: token approval failed. Aborts that token's batches only.
	KindAllowanceFailure Kind = "AllowanceFailure"
	// KindBatchSubmission: one batch reverted, was rejected or dropped.
	KindBatchSubmission Kind = "BatchSubmissionFailure"
	// KindConfiguration: no distributor deployment or unresolvable asset. Aborts the run.
	KindConfiguration Kind = "ConfigurationError"
	// KindInsufficientFunds: signer balance cannot cover values and fees. Aborts the run.
	KindInsufficientFunds Kind = "InsufficientFunds"
)

var (
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrRunCancelled       = errors.New("run cancelled")

	// ErrSubmitUncertain marks a send whose request may have reached the
	// node. The transaction hash accompanies it.
	ErrSubmitUncertain = errors.New("submission outcome uncertain")
)

// Error carries a Kind over a wrapped cause.
type Error struct {
	Kind Kind
	Err  error
}

func NewError(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }

func Errorf(kind Kind, format string, a ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, a...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so callers can test with
// errors.Is(err, &Error{Kind: KindConfiguration}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// RunAborting reports whether err stops a run before any batch is submitted.
func RunAborting(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	switch k {
	case KindResolverUnavailable, KindConfiguration, KindInsufficientFunds, KindInputValidation:
		return true
	}
	return false
}
