// Package errors centralizes the service error taxonomy and its mapping to
// HTTP status codes, keeping handler code free of status juggling.
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

var (
	// ErrUnauthenticated means no caller identity reached the service.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller lacks the role for an operator endpoint.
	ErrForbidden = errors.New("forbidden")

	// ErrNotPaired means the caller has no couple bound.
	ErrNotPaired = errors.New("not paired")

	// ErrUnknownCategory means the requested category is not in the catalog set.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrMismatch means the claimed activity does not occupy the current deck
	// slot. Routine under concurrent use; never logged as a fault.
	ErrMismatch = errors.New("activity mismatch")

	// ErrInvalidDirection means the swipe direction is not a known value.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInvalidInviteCode means no couple carries the presented code.
	ErrInvalidInviteCode = errors.New("invalid invite code")

	// ErrCoupleFull means the invite code was already redeemed.
	ErrCoupleFull = errors.New("couple already full")

	// ErrAlreadyPaired means the caller is already a member of a couple.
	ErrAlreadyPaired = errors.New("already paired")
)

// HTTPStatus maps service and infra errors onto HTTP status codes.
// Conflict is handled separately by the feed handlers because its response
// carries a state snapshot.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrNotPaired):
		return http.StatusUnauthorized

	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, ErrUnknownCategory),
		errors.Is(err, ErrInvalidInviteCode), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrMismatch), errors.Is(err, ErrInvalidDirection),
		errors.Is(err, ErrAlreadyPaired):
		return http.StatusBadRequest

	case errors.Is(err, ErrCoupleFull), errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
