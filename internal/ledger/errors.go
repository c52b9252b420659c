package ledger

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-checkable category of a settlement failure
type Kind string

const (
	KindInvalidAmount      Kind = "InvalidAmount"
	KindInsufficientFunds  Kind = "InsufficientFunds"
	KindSelfTransferDenied Kind = "SelfTransferDenied"
	KindNotFound           Kind = "NotFound"
	KindPolicyMissing      Kind = "PolicyMissing"
	KindUnauthorized       Kind = "Unauthorized"
	KindInternal           Kind = "Internal"

	// registration only
	KindInvalidRequest Kind = "InvalidRequest"
	KindConflict       Kind = "Conflict"
)

// Sentinels for errors.Is. Every *Error unwraps to the one matching its kind.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrSelfTransferDenied = errors.New("self transfer denied")
	ErrNotFound           = errors.New("not found")
	ErrPolicyMissing      = errors.New("fee split policy missing")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInternal           = errors.New("internal failure")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrConflict           = errors.New("conflict")
)

var sentinels = map[Kind]error{
	KindInvalidAmount:      ErrInvalidAmount,
	KindInsufficientFunds:  ErrInsufficientFunds,
	KindSelfTransferDenied: ErrSelfTransferDenied,
	KindNotFound:           ErrNotFound,
	KindPolicyMissing:      ErrPolicyMissing,
	KindUnauthorized:       ErrUnauthorized,
	KindInternal:           ErrInternal,
	KindInvalidRequest:     ErrInvalidRequest,
	KindConflict:           ErrConflict,
}

var statuses = map[Kind]int{
	KindInvalidAmount:      http.StatusBadRequest,
	KindInsufficientFunds:  http.StatusBadRequest,
	KindSelfTransferDenied: http.StatusUnauthorized,
	KindNotFound:           http.StatusNotFound,
	KindPolicyMissing:      http.StatusBadRequest,
	KindUnauthorized:       http.StatusUnauthorized,
	KindInternal:           http.StatusInternalServerError,
	KindInvalidRequest:     http.StatusBadRequest,
	KindConflict:           http.StatusConflict,
}

// Error is the structured failure returned by every engine operation.
// Message is safe to show to the caller; storage details never end up in it.
type Error struct {
	Kind    Kind
	Message string
	Entity  string // account email/id or policy label the failure is about, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return sentinels[e.Kind]
}

// Status is the HTTP-like severity hint for the boundary layer
func (e *Error) Status() int {
	if s, ok := statuses[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func newError(kind Kind, entity string, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func internalError() *Error {
	return &Error{Kind: KindInternal, Message: "transaction could not be completed"}
}

// KindOf returns the kind carried by err. Anything that is not an *Error is Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf returns the severity hint for err
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status()
	}
	return http.StatusInternalServerError
}
