// Package apperr holds the error taxonomy shared by the reservation services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindNotFound      Kind = "not_found"
)

// Error codes surfaced to callers.
const (
	CodeInvalidRule            = "invalid_rule"
	CodeInvalidInput           = "invalid_input"
	CodeSlotConflict           = "slot_conflict"
	CodeHoldExpired            = "hold_expired"
	CodeHoldNotOwned           = "hold_not_owned"
	CodeNonContiguousSelection = "non_contiguous_selection"
	CodeVersionConflict        = "version_conflict"
	CodeForbidden              = "forbidden"
	CodeInvalidTransition      = "invalid_transition"
	CodeNotFound               = "not_found"
)

// Refresh hints tell the client which view became stale.
const (
	RefreshAvailability  = "availability"
	RefreshSlotSelection = "slot_selection"
	RefreshBooking       = "booking"
)

// Error is the single error type returned by the service layer for expected failures.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Refresh string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status maps the error kind onto an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindState:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// With attaches a detail entry and returns the same error.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, refresh, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Refresh: refresh, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(format string, args ...any) *Error {
	return &Error{Kind: KindState, Code: CodeInvalidTransition, Refresh: RefreshBooking, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// SlotConflict reports that at least one requested slot is no longer available.
func SlotConflict(slotIDs ...string) *Error {
	e := Conflict(CodeSlotConflict, RefreshAvailability, "slot no longer available, refresh availability")
	if len(slotIDs) > 0 {
		e.With("slot_ids", slotIDs)
	}
	return e
}

// HoldExpired reports a missing or expired hold; the caller must reselect slots.
func HoldExpired() *Error {
	return Conflict(CodeHoldExpired, RefreshSlotSelection, "hold expired or missing, select slots again")
}

// HoldNotOwned reports a hold that belongs to another party.
func HoldNotOwned() *Error {
	return Conflict(CodeHoldNotOwned, RefreshSlotSelection, "slots are held by another party")
}

func NonContiguousSelection() *Error {
	return Conflict(CodeNonContiguousSelection, RefreshSlotSelection, "selected slots must be back-to-back")
}

func VersionConflict(resource string) *Error {
	return Conflict(CodeVersionConflict, RefreshBooking, "%s was modified concurrently, reload and retry", resource)
}

func InvalidRule(format string, args ...any) *Error {
	return Validation(CodeInvalidRule, format, args...)
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
