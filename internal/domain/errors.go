package domain

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound          = errors.New("item not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidID             = errors.New("invalid id")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidDuration       = errors.New("invalid duration")
	ErrItemNameRequired      = errors.New("item name required")
	ErrCustomerNameRequired  = errors.New("customer name required")
	ErrCustomerEmailRequired = errors.New("customer email required")
	ErrEmptyCheckout         = errors.New("checkout has no lines")
)

// ErrInsufficientStock and ErrInvalidTransition are matching targets for the
// typed errors below; use errors.Is against these and errors.As to read the
// payload.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid transition")
)

// InsufficientStockError reports a requested quantity exceeding what is
// currently available. Available carries the live count so the caller can
// offer a corrected maximum.
type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidTransitionError reports a lifecycle action not permitted from the
// reservation's current status.
type InvalidTransitionError struct {
	ReservationID string
	Status        ReservationStatus
	Action        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s reservation %s in status %s",
		e.Action, e.ReservationID, e.Status)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
