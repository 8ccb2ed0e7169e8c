package app

import (
	"context"
	"strings"
	"time"

	"github.com/LeandroKeltech/bgcatalog/internal/clock"
	"github.com/LeandroKeltech/bgcatalog/internal/domain"
)

type ItemRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateItem(ctx context.Context, item domain.Item) error
	GetItem(ctx context.Context, id string) (domain.Item, error)
	GetItemForUpdate(ctx context.Context, id string) (domain.Item, error)
	ListItems(ctx context.Context) ([]domain.Item, error)
	UpdateItemStock(ctx context.Context, item domain.Item) error
	SumActiveReservations(ctx context.Context, itemID string, now time.Time) (int, error)
}

// ItemService manages the catalog entries reservations are held against and
// answers the availability queries that gate "add to cart".
type ItemService struct {
	repo ItemRepository
	clk  clock.Clock
}

func NewItemService(repo ItemRepository, clk clock.Clock) *ItemService {
	return &ItemService{
		repo: repo,
		clk:  clk,
	}
}

type CreateItemInput struct {
	Name          string
	StockQuantity int
}

func (s *ItemService) CreateItem(ctx context.Context, in CreateItemInput) (domain.Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Item{}, domain.ErrItemNameRequired
	}
	if in.StockQuantity < 0 {
		return domain.Item{}, domain.ErrInvalidQuantity
	}

	now := s.clk.Now()
	item := domain.Item{
		ID:            newID(),
		Name:          in.Name,
		StockQuantity: in.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// ItemAvailability pairs an item with its live reservation overlay.
type ItemAvailability struct {
	Item              domain.Item
	ReservedQuantity  int
	AvailableQuantity int
	Available         bool
}

func (s *ItemService) GetItem(ctx context.Context, id string) (ItemAvailability, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return ItemAvailability{}, err
	}
	return s.withAvailability(ctx, item)
}

func (s *ItemService) ListItems(ctx context.Context) ([]ItemAvailability, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ItemAvailability, 0, len(items))
	for _, item := range items {
		ia, err := s.withAvailability(ctx, item)
		if err != nil {
			return nil, err
		}
		out = append(out, ia)
	}
	return out, nil
}

// AvailableQuantity is the stock not claimed by any unexpired active
// reservation, floored at zero.
func (s *ItemService) AvailableQuantity(ctx context.Context, id string) (int, error) {
	ia, err := s.GetItem(ctx, id)
	if err != nil {
		return 0, err
	}
	return ia.AvailableQuantity, nil
}

func (s *ItemService) IsAvailable(ctx context.Context, id string) (bool, error) {
	ia, err := s.GetItem(ctx, id)
	if err != nil {
		return false, err
	}
	return ia.Available, nil
}

// Restock sets the item's stock count. Runs under the item row lock so it
// serializes with in-flight confirmations; a positive count clears the
// sold-out flag.
func (s *ItemService) Restock(ctx context.Context, id string, quantity int) (domain.Item, error) {
	if quantity < 0 {
		return domain.Item{}, domain.ErrInvalidQuantity
	}

	var result domain.Item
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		item, err := s.repo.GetItemForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		item.StockQuantity = quantity
		if quantity > 0 {
			item.IsSoldOut = false
			item.SoldAt = nil
		}
		if err := s.repo.UpdateItemStock(txCtx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return domain.Item{}, err
	}
	return result, nil
}

func (s *ItemService) withAvailability(ctx context.Context, item domain.Item) (ItemAvailability, error) {
	reserved, err := s.repo.SumActiveReservations(ctx, item.ID, s.clk.Now())
	if err != nil {
		return ItemAvailability{}, err
	}
	available := availableQuantity(item, reserved)
	return ItemAvailability{
		Item:              item,
		ReservedQuantity:  reserved,
		AvailableQuantity: available,
		Available:         available > 0 && !item.IsSoldOut,
	}, nil
}
