package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/LeandroKeltech/bgcatalog/internal/domain"
	"github.com/LeandroKeltech/bgcatalog/internal/testutil"
)

func TestReservationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewReservationRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("CreateReservation inserts row and maps missing item", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 5)
		now := time.Now().UTC()

		res := domain.Reservation{
			ID:            "22222222-2222-2222-2222-222222222222",
			ItemID:        itemID,
			Quantity:      2,
			Status:        domain.ReservationStatusActive,
			CustomerName:  "Ada",
			CustomerEmail: "ada@example.com",
			SessionKey:    "sess-1",
			CreatedAt:     now,
			ExpiresAt:     now.Add(30 * time.Minute),
		}
		if err := repo.CreateReservation(ctx, res); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var count int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM reservations WHERE id = $1", res.ID).Scan(&count); err != nil {
			t.Fatalf("query count: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected reservation persisted, got count %d", count)
		}

		res.ID = "33333333-3333-3333-3333-333333333333"
		res.ItemID = "00000000-0000-0000-0000-000000000001"
		if err := repo.CreateReservation(ctx, res); err != domain.ErrItemNotFound {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("GetReservationForUpdate returns reservation and ErrReservationNotFound", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 5)

		resID := testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusActive,
			Quantity:  2,
			ExpiresAt: time.Now().Add(10 * time.Minute).UTC(),
		})

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			res, err := repo.GetReservationForUpdate(txCtx, resID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.ID != resID || res.ItemID != itemID || res.Quantity != 2 {
				t.Fatalf("unexpected reservation: %+v", res)
			}
			if res.Status != domain.ReservationStatusActive {
				t.Fatalf("expected active, got %s", res.Status)
			}

			_, err = repo.GetReservationForUpdate(txCtx, "00000000-0000-0000-0000-000000000001")
			if err != domain.ErrReservationNotFound {
				t.Fatalf("expected ErrReservationNotFound, got %v", err)
			}

			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		_, err = repo.GetReservationForUpdate(ctx, "not-a-uuid")
		if err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("UpdateReservation persists lifecycle fields", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 5)
		now := time.Now().UTC().Truncate(time.Microsecond)

		resID := testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusActive,
			Quantity:  2,
			ExpiresAt: now.Add(10 * time.Minute),
		})

		err := repo.UpdateReservation(ctx, domain.Reservation{
			ID:          resID,
			Status:      domain.ReservationStatusConfirmed,
			ExpiresAt:   now.Add(10 * time.Minute),
			ConfirmedAt: &now,
			AdminNotes:  "picked up",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		res, err := repo.GetReservationForUpdate(ctx, resID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Status != domain.ReservationStatusConfirmed {
			t.Fatalf("expected confirmed, got %s", res.Status)
		}
		if res.ConfirmedAt == nil || !res.ConfirmedAt.Equal(now) {
			t.Fatalf("expected confirmed_at %v, got %v", now, res.ConfirmedAt)
		}
		if res.AdminNotes != "picked up" {
			t.Fatalf("expected admin notes, got %q", res.AdminNotes)
		}

		err = repo.UpdateReservation(ctx, domain.Reservation{
			ID:     "00000000-0000-0000-0000-000000000001",
			Status: domain.ReservationStatusCancelled,
		})
		if err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})

	t.Run("ExpireOverdue flips only overdue actives", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 10)
		now := time.Now().UTC()

		overdue := testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusActive,
			Quantity:  1,
			ExpiresAt: now.Add(-1 * time.Minute),
		})
		live := testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusActive,
			Quantity:  1,
			ExpiresAt: now.Add(5 * time.Minute),
		})
		confirmed := testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusConfirmed,
			Quantity:  1,
			ExpiresAt: now.Add(-1 * time.Hour),
		})

		count, err := repo.ExpireOverdue(ctx, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 expired, got %d", count)
		}

		assertStatus := func(id string, want domain.ReservationStatus) {
			t.Helper()
			var status string
			if err := pool.QueryRow(ctx, "SELECT status FROM reservations WHERE id = $1", id).Scan(&status); err != nil {
				t.Fatalf("query status: %v", err)
			}
			if domain.ReservationStatus(status) != want {
				t.Fatalf("expected %s, got %s", want, status)
			}
		}
		assertStatus(overdue, domain.ReservationStatusExpired)
		assertStatus(live, domain.ReservationStatusActive)
		assertStatus(confirmed, domain.ReservationStatusConfirmed)

		count, err = repo.ExpireOverdue(ctx, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != 0 {
			t.Fatalf("expected idempotent second sweep, got %d", count)
		}
	})

	t.Run("ListReservations filters by status and session", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 10)
		now := time.Now().UTC()

		activeA := testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:     domain.ReservationStatusActive,
			Quantity:   1,
			SessionKey: "sess-a",
			ExpiresAt:  now.Add(5 * time.Minute),
		})
		testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:     domain.ReservationStatusCancelled,
			Quantity:   1,
			SessionKey: "sess-a",
			ExpiresAt:  now.Add(5 * time.Minute),
		})
		testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:     domain.ReservationStatusActive,
			Quantity:   1,
			SessionKey: "sess-b",
			ExpiresAt:  now.Add(5 * time.Minute),
		})

		all, err := repo.ListReservations(ctx, "", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 reservations, got %d", len(all))
		}

		active, err := repo.ListReservations(ctx, "active", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(active) != 2 {
			t.Fatalf("expected 2 active, got %d", len(active))
		}

		got, err := repo.ListReservations(ctx, "active", "sess-a")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 1 || got[0].ID != activeA {
			t.Fatalf("expected only the sess-a active reservation, got %+v", got)
		}
	})

	t.Run("CountByStatus groups all statuses", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 10)
		now := time.Now().UTC()

		for _, status := range []domain.ReservationStatus{
			domain.ReservationStatusActive,
			domain.ReservationStatusActive,
			domain.ReservationStatusConfirmed,
			domain.ReservationStatusExpired,
		} {
			testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
				Status:    status,
				Quantity:  1,
				ExpiresAt: now.Add(5 * time.Minute),
			})
		}

		counts, err := repo.CountByStatus(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if counts[domain.ReservationStatusActive] != 2 {
			t.Fatalf("expected 2 active, got %d", counts[domain.ReservationStatusActive])
		}
		if counts[domain.ReservationStatusConfirmed] != 1 {
			t.Fatalf("expected 1 confirmed, got %d", counts[domain.ReservationStatusConfirmed])
		}
		if counts[domain.ReservationStatusExpired] != 1 {
			t.Fatalf("expected 1 expired, got %d", counts[domain.ReservationStatusExpired])
		}
	})

	t.Run("SumActiveQuantity ignores lapsed holds", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 10)
		now := time.Now().UTC()

		testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusActive,
			Quantity:  4,
			ExpiresAt: now.Add(5 * time.Minute),
		})
		testutil.InsertReservation(t, ctx, pool, itemID, domain.Reservation{
			Status:    domain.ReservationStatusActive,
			Quantity:  6,
			ExpiresAt: now.Add(-1 * time.Minute),
		})

		total, err := repo.SumActiveQuantity(ctx, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if total != 4 {
			t.Fatalf("expected 4, got %d", total)
		}
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Catan", 5)
		now := time.Now().UTC()

		wantErr := domain.ErrInvalidQuantity
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			res := domain.Reservation{
				ID:            "44444444-4444-4444-4444-444444444444",
				ItemID:        itemID,
				Quantity:      1,
				Status:        domain.ReservationStatusActive,
				CustomerName:  "Ada",
				CustomerEmail: "ada@example.com",
				CreatedAt:     now,
				ExpiresAt:     now.Add(30 * time.Minute),
			}
			if err := repo.CreateReservation(txCtx, res); err != nil {
				t.Fatalf("create inside tx: %v", err)
			}
			return wantErr
		})
		if err != wantErr {
			t.Fatalf("expected %v, got %v", wantErr, err)
		}

		var count int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM reservations").Scan(&count); err != nil {
			t.Fatalf("query count: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected rollback, got %d rows", count)
		}
	})
}
