package models

import (
	"errors"
	"fmt"
)

// Business-rule errors surfaced by the billing core. Handlers map these to
// transport-level statuses; anything not listed here is treated as an
// internal failure.
var (
	// ErrNotFound is returned when an entity does not exist or is not
	// accessible to the acting user.
	ErrNotFound = errors.New("not found")

	// ErrSessionExpired is returned when the billing session window has
	// elapsed or the session id no longer matches.
	ErrSessionExpired = errors.New("session expired")

	// ErrDuplicateDraft is returned when a second draft would be created
	// for the same (user, session) pair.
	ErrDuplicateDraft = errors.New("active draft already exists")

	// ErrInvalidTransition is returned when an operation is not valid for
	// the invoice's current status, e.g. completing an empty invoice or
	// modifying a non-draft invoice.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a concurrent writer won a race this
	// request lost; callers may retry.
	ErrConflict = errors.New("conflict")

	// ErrProductInactive is returned when a product cannot be sold.
	ErrProductInactive = errors.New("product is not active")
)

// InsufficientStockError reports a failed stock reservation together with the
// quantity that was actually available at the time of the check.
type InsufficientStockError struct {
	ProductID string
	Requested float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %.3f, available %.3f",
		e.ProductID, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err is a stock-availability failure and
// returns the typed error when it is.
func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}
