package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusActive, ReservationStatusConfirmed, ReservationStatusCancelled, ReservationStatusExpired:
		return true
	}
	return false
}

// Reservation is a time-boxed hold against an item's stock, made on behalf of
// a prospective buyer while their quote request is handled.
type Reservation struct {
	ID              string
	ItemID          string
	Quantity        int
	Status          ReservationStatus
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerMessage string
	SessionKey      string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
	AdminNotes      string
}

// Overdue reports whether the reservation's expiry window has passed. An
// overdue reservation may still carry status active until a sweep or
// lifecycle transition notices it.
func (r Reservation) Overdue(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// TimeRemaining returns how long the hold is still good for, zero once
// overdue.
func (r Reservation) TimeRemaining(now time.Time) time.Duration {
	if r.Overdue(now) {
		return 0
	}
	return r.ExpiresAt.Sub(now)
}
