package app

import (
	"context"
	"strings"
	"time"

	"github.com/LeandroKeltech/bgcatalog/internal/clock"
	"github.com/LeandroKeltech/bgcatalog/internal/domain"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetItemForUpdate(ctx context.Context, itemID string) (domain.Item, error)
	SumActiveReservations(ctx context.Context, itemID string, now time.Time) (int, error)
	CreateReservation(ctx context.Context, res domain.Reservation) error
}

// ReservationService creates stock reservations on behalf of shoppers. Every
// creation locks the item row, so concurrent requests against the same item
// serialize instead of jointly over-committing stock.
type ReservationService struct {
	repo ReservationRepository
	clk  clock.Clock
	ttl  time.Duration
}

const defaultReservationTTL = 30 * time.Minute

func NewReservationService(repo ReservationRepository, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo: repo,
		clk:  clk,
		ttl:  defaultReservationTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithReservationTTL overrides the default expiry window for new reservations.
func WithReservationTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// Customer holds the contact details captured with a quote request. Immutable
// once the reservation exists.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

func (c Customer) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return domain.ErrCustomerNameRequired
	}
	if strings.TrimSpace(c.Email) == "" {
		return domain.ErrCustomerEmailRequired
	}
	return nil
}

type CreateReservationInput struct {
	ItemID     string
	Quantity   int
	Customer   Customer
	SessionKey string
}

// CreateReservation places a hold against the item's stock. The availability
// check and the insert run in one transaction under the item's row lock; on
// insufficient stock the returned error carries the live available quantity.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	if in.Quantity < 1 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}
	if err := in.Customer.validate(); err != nil {
		return domain.Reservation{}, err
	}

	now := s.clk.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.createLocked(txCtx, in, now)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

type CheckoutLine struct {
	ItemID   string
	Quantity int
}

type CheckoutInput struct {
	Lines      []CheckoutLine
	Customer   Customer
	SessionKey string
}

// Checkout reserves every cart line inside one transaction. If any line fails
// availability the whole transaction rolls back and no reservation is
// persisted.
func (s *ReservationService) Checkout(ctx context.Context, in CheckoutInput) ([]domain.Reservation, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrEmptyCheckout
	}
	for _, line := range in.Lines {
		if line.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
	}
	if err := in.Customer.validate(); err != nil {
		return nil, err
	}

	now := s.clk.Now()
	var result []domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		created := make([]domain.Reservation, 0, len(in.Lines))
		for _, line := range in.Lines {
			res, err := s.createLocked(txCtx, CreateReservationInput{
				ItemID:     line.ItemID,
				Quantity:   line.Quantity,
				Customer:   in.Customer,
				SessionKey: in.SessionKey,
			}, now)
			if err != nil {
				return err
			}
			created = append(created, res)
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// createLocked runs the check-then-insert sequence. Callers must hold a
// transaction; the item row lock is taken here.
func (s *ReservationService) createLocked(ctx context.Context, in CreateReservationInput, now time.Time) (domain.Reservation, error) {
	item, err := s.repo.GetItemForUpdate(ctx, in.ItemID)
	if err != nil {
		return domain.Reservation{}, err
	}

	reserved, err := s.repo.SumActiveReservations(ctx, in.ItemID, now)
	if err != nil {
		return domain.Reservation{}, err
	}

	available := availableQuantity(item, reserved)
	if in.Quantity > available {
		return domain.Reservation{}, &domain.InsufficientStockError{
			ItemID:    in.ItemID,
			Requested: in.Quantity,
			Available: available,
		}
	}

	res := domain.Reservation{
		ID:              newID(),
		ItemID:          in.ItemID,
		Quantity:        in.Quantity,
		Status:          domain.ReservationStatusActive,
		CustomerName:    in.Customer.Name,
		CustomerEmail:   in.Customer.Email,
		CustomerPhone:   in.Customer.Phone,
		CustomerMessage: in.Customer.Message,
		SessionKey:      in.SessionKey,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
	}

	if err := s.repo.CreateReservation(ctx, res); err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

// availableQuantity is stock minus the live set of unexpired active
// reservations, floored at zero. Reservations never touch StockQuantity, so
// an abandoned hold frees itself by aging out of the aggregate.
func availableQuantity(item domain.Item, reserved int) int {
	available := item.StockQuantity - reserved
	if available < 0 {
		return 0
	}
	return available
}
