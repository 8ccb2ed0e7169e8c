package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/LeandroKeltech/bgcatalog/internal/domain"
	"github.com/LeandroKeltech/bgcatalog/internal/testutil"
)

func TestItemRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewItemRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("GetItemForUpdate returns item and ErrItemNotFound", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 6)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			item, err := repo.GetItemForUpdate(txCtx, itemID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if item.ID != itemID || item.Name != "Catan" || item.StockQuantity != 6 {
				t.Fatalf("unexpected item: %+v", item)
			}

			missingID := "00000000-0000-0000-0000-000000000001"
			_, err = repo.GetItemForUpdate(txCtx, missingID)
			if err != domain.ErrItemNotFound {
				t.Fatalf("expected ErrItemNotFound, got %v", err)
			}

			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		_, err = repo.GetItemForUpdate(ctx, "not-a-uuid")
		if err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("CreateItem inserts row", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		now := time.Now().UTC()

		item := domain.Item{
			ID:            "11111111-1111-1111-1111-111111111111",
			Name:          "Wingspan",
			StockQuantity: 3,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetItem(ctx, item.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Name != "Wingspan" || got.StockQuantity != 3 || got.IsSoldOut {
			t.Fatalf("unexpected item: %+v", got)
		}
	})

	t.Run("ListItems returns newest first", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		first := testutil.InsertItem(t, ctx, pool, "Azul", 2)
		second := testutil.InsertItem(t, ctx, pool, "Root", 4)

		items, err := repo.ListItems(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[0].ID != second || items[1].ID != first {
			t.Fatalf("expected newest first: %+v", items)
		}
	})

	t.Run("UpdateItemStock persists stock and sold-out fields", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 2)
		now := time.Now().UTC()

		err := repo.UpdateItemStock(ctx, domain.Item{
			ID:            itemID,
			StockQuantity: 0,
			IsSoldOut:     true,
			SoldAt:        &now,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetItem(ctx, itemID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.StockQuantity != 0 || !got.IsSoldOut || got.SoldAt == nil {
			t.Fatalf("unexpected item: %+v", got)
		}

		err = repo.UpdateItemStock(ctx, domain.Item{
			ID:            "00000000-0000-0000-0000-000000000001",
			StockQuantity: 1,
		})
		if err != domain.ErrItemNotFound {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("SumActiveReservations excludes expired and non-active", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 10)
		now := time.Now().UTC()

		testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusActive,
			Quantity:  3,
			ExpiresAt: now.Add(5 * time.Minute),
		})
		testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusActive,
			Quantity:  2,
			ExpiresAt: now.Add(-1 * time.Minute), // expired
		})
		testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusCancelled,
			Quantity:  4,
			ExpiresAt: now.Add(5 * time.Minute),
		})

		total, err := repo.SumActiveReservations(ctx, itemID, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if total != 3 {
			t.Fatalf("expected active sum 3, got %d", total)
		}
	})
}
