package app

import (
	"context"
	"time"

	"github.com/LeandroKeltech/bgcatalog/internal/clock"
	"github.com/LeandroKeltech/bgcatalog/internal/domain"
)

type AdminRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error)
	GetItemForUpdate(ctx context.Context, itemID string) (domain.Item, error)
	UpdateReservation(ctx context.Context, res domain.Reservation) error
	UpdateItemStock(ctx context.Context, item domain.Item) error
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
	ListReservations(ctx context.Context, status, sessionKey string) ([]domain.Reservation, error)
	CountByStatus(ctx context.Context) (map[domain.ReservationStatus]int, error)
	SumActiveQuantity(ctx context.Context, now time.Time) (int, error)
}

// AdminService drives the reservation lifecycle from operator actions:
// confirming a sale, cancelling, extending the hold window, and sweeping
// overdue reservations.
type AdminService struct {
	repo AdminRepository
	clk  clock.Clock
}

const DefaultExtendMinutes = 30

func NewAdminService(repo AdminRepository, clk clock.Clock) *AdminService {
	return &AdminService{
		repo: repo,
		clk:  clk,
	}
}

// Confirm commits the sale behind an active reservation: stock is re-checked
// and decremented under the item's row lock, and the item is flagged sold out
// when it drains to zero. An overdue reservation is marked expired first and
// the transition then fails the same way it would after a sweep.
func (s *AdminService) Confirm(ctx context.Context, id, adminNotes string) error {
	now := s.clk.Now()
	var lapsed bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if res.Status == domain.ReservationStatusActive && res.Overdue(now) {
			res.Status = domain.ReservationStatusExpired
			if err := s.repo.UpdateReservation(txCtx, res); err != nil {
				return err
			}
			lapsed = true
			return nil
		}
		if res.Status != domain.ReservationStatusActive {
			return &domain.InvalidTransitionError{ReservationID: id, Status: res.Status, Action: "confirm"}
		}

		item, err := s.repo.GetItemForUpdate(txCtx, res.ItemID)
		if err != nil {
			return err
		}
		// Another confirmation may have reduced stock since this reservation
		// was created; the reservation stays active on failure.
		if item.StockQuantity < res.Quantity {
			return &domain.InsufficientStockError{
				ItemID:    res.ItemID,
				Requested: res.Quantity,
				Available: item.StockQuantity,
			}
		}

		res.Status = domain.ReservationStatusConfirmed
		res.ConfirmedAt = &now
		if adminNotes != "" {
			res.AdminNotes = adminNotes
		}
		if err := s.repo.UpdateReservation(txCtx, res); err != nil {
			return err
		}

		item.StockQuantity -= res.Quantity
		if item.StockQuantity <= 0 {
			item.StockQuantity = 0
			item.IsSoldOut = true
			item.SoldAt = &now
		}
		return s.repo.UpdateItemStock(txCtx, item)
	})
	if err != nil {
		return err
	}
	if lapsed {
		return &domain.InvalidTransitionError{ReservationID: id, Status: domain.ReservationStatusExpired, Action: "confirm"}
	}
	return nil
}

// Cancel releases an active or expired reservation. Item stock is untouched;
// the hold simply stops counting toward availability.
func (s *AdminService) Cancel(ctx context.Context, id, adminNotes string) error {
	now := s.clk.Now()

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		switch res.Status {
		case domain.ReservationStatusActive, domain.ReservationStatusExpired:
		default:
			return &domain.InvalidTransitionError{ReservationID: id, Status: res.Status, Action: "cancel"}
		}

		res.Status = domain.ReservationStatusCancelled
		res.CancelledAt = &now
		if adminNotes != "" {
			res.AdminNotes = adminNotes
		}
		return s.repo.UpdateReservation(txCtx, res)
	})
}

// Extend resets the expiry window of an active reservation to now plus the
// given number of minutes, regardless of the prior deadline.
func (s *AdminService) Extend(ctx context.Context, id string, minutes int) error {
	if minutes <= 0 {
		return domain.ErrInvalidDuration
	}

	now := s.clk.Now()
	var lapsed bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if res.Status == domain.ReservationStatusActive && res.Overdue(now) {
			res.Status = domain.ReservationStatusExpired
			if err := s.repo.UpdateReservation(txCtx, res); err != nil {
				return err
			}
			lapsed = true
			return nil
		}
		if res.Status != domain.ReservationStatusActive {
			return &domain.InvalidTransitionError{ReservationID: id, Status: res.Status, Action: "extend"}
		}

		res.ExpiresAt = now.Add(time.Duration(minutes) * time.Minute)
		return s.repo.UpdateReservation(txCtx, res)
	})
	if err != nil {
		return err
	}
	if lapsed {
		return &domain.InvalidTransitionError{ReservationID: id, Status: domain.ReservationStatusExpired, Action: "extend"}
	}
	return nil
}

// SweepExpired marks every overdue active reservation as expired and returns
// how many rows changed. Availability never depends on this running: the
// aggregates filter on expires_at themselves.
func (s *AdminService) SweepExpired(ctx context.Context) (int, error) {
	return s.repo.ExpireOverdue(ctx, s.clk.Now())
}

type ReservationFilter struct {
	Status     string
	SessionKey string
}

// ListReservations returns reservations newest first, optionally filtered by
// status and session key. Overdue actives are swept first so an "active"
// filter is truthful.
func (s *AdminService) ListReservations(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error) {
	if filter.Status != "" && !domain.ReservationStatus(filter.Status).Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if _, err := s.repo.ExpireOverdue(ctx, s.clk.Now()); err != nil {
		return nil, err
	}
	return s.repo.ListReservations(ctx, filter.Status, filter.SessionKey)
}

type ReservationStats struct {
	Active           int
	Confirmed        int
	Cancelled        int
	Expired          int
	ReservedQuantity int
}

// Stats reports per-status counts and the total quantity held by live active
// reservations, for the admin dashboard.
func (s *AdminService) Stats(ctx context.Context) (ReservationStats, error) {
	now := s.clk.Now()
	if _, err := s.repo.ExpireOverdue(ctx, now); err != nil {
		return ReservationStats{}, err
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return ReservationStats{}, err
	}
	reserved, err := s.repo.SumActiveQuantity(ctx, now)
	if err != nil {
		return ReservationStats{}, err
	}

	return ReservationStats{
		Active:           counts[domain.ReservationStatusActive],
		Confirmed:        counts[domain.ReservationStatusConfirmed],
		Cancelled:        counts[domain.ReservationStatusCancelled],
		Expired:          counts[domain.ReservationStatusExpired],
		ReservedQuantity: reserved,
	}, nil
}
