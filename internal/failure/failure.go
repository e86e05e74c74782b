package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	Unauthorized      Kind = "Unauthorized"
	InvalidFee        Kind = "InvalidFee"
	InvalidState      Kind = "InvalidState"
	InsufficientFunds Kind = "InsufficientFunds"
	ExpiredOrReplayed Kind = "ExpiredOrReplayed"
	NotFound          Kind = "NotFound"
	InvalidArgument   Kind = "InvalidArgument"
)

// Contract error codes surfaced to clients.
const (
	CodeOrderConsumed    = "ERRSH1"
	CodeBadSignature     = "ERRSH2"
	CodeOrderWindow      = "ERRSH3"
	CodeBadCanceller     = "ERRSH4"
	CodeUnsupportedToken = "ERREOM1"
	CodeNotAssetOwner    = "ERREOM2"
	CodeNotApproved      = "ERREOM3"
	CodeLowBalance       = "ERREOM4"
	CodeLowAllowance     = "ERREOM5"
	CodeLowNativePayment = "ERREOM6"
)

// Error is the failure returned by every marketplace operation. Two errors match
// under errors.Is when their kinds match and, if the target carries a code, the codes match.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

var (
	ErrUnauthorized      = &Error{Kind: Unauthorized}
	ErrInvalidFee        = &Error{Kind: InvalidFee}
	ErrInvalidState      = &Error{Kind: InvalidState}
	ErrInsufficientFunds = &Error{Kind: InsufficientFunds}
	ErrExpiredOrReplayed = &Error{Kind: ExpiredOrReplayed}
	ErrNotFound          = &Error{Kind: NotFound}
	ErrInvalidArgument   = &Error{Kind: InvalidArgument}
)

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

func New(kind Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func Coded(kind Kind, code string, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Code builds a matcher for errors.Is that checks both kind and code.
func Code(kind Kind, code string) error {
	return &Error{Kind: kind, Code: code}
}

// KindOf returns the kind of err, or the empty kind when err is not a marketplace failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
