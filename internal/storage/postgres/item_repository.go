package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/LeandroKeltech/bgcatalog/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func (r *ItemRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ItemRepository) CreateItem(ctx context.Context, item domain.Item) error {
	const stmt = `
INSERT INTO items (id, name, stock_quantity, is_sold_out, sold_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := dbFromContext(ctx, r.pool).Exec(ctx, stmt,
		item.ID,
		item.Name,
		item.StockQuantity,
		item.IsSoldOut,
		item.SoldAt,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *ItemRepository) GetItem(ctx context.Context, id string) (domain.Item, error) {
	return getItem(ctx, dbFromContext(ctx, r.pool), id, false)
}

func (r *ItemRepository) GetItemForUpdate(ctx context.Context, id string) (domain.Item, error) {
	return getItem(ctx, dbFromContext(ctx, r.pool), id, true)
}

func (r *ItemRepository) ListItems(ctx context.Context) ([]domain.Item, error) {
	const query = `
SELECT id, name, stock_quantity, is_sold_out, sold_at, created_at, updated_at
FROM items
ORDER BY created_at DESC`

	rows, err := dbFromContext(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID, &item.Name, &item.StockQuantity, &item.IsSoldOut,
			&item.SoldAt, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate items: %w", rows.Err())
	}
	return items, nil
}

func (r *ItemRepository) UpdateItemStock(ctx context.Context, item domain.Item) error {
	return updateItemStock(ctx, dbFromContext(ctx, r.pool), item)
}

func (r *ItemRepository) SumActiveReservations(ctx context.Context, itemID string, now time.Time) (int, error) {
	return sumActiveReservations(ctx, dbFromContext(ctx, r.pool), itemID, now)
}

// getItem and friends are shared with ReservationRepository: both sides of
// the reservation lifecycle lock and mutate the same item rows.

func getItem(ctx context.Context, db querier, id string, forUpdate bool) (domain.Item, error) {
	query := `
SELECT id, name, stock_quantity, is_sold_out, sold_at, created_at, updated_at
FROM items
WHERE id = $1`
	if forUpdate {
		query += `
FOR UPDATE`
	}

	var item domain.Item
	err := db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.StockQuantity, &item.IsSoldOut,
		&item.SoldAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Item{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Item{}, domain.ErrItemNotFound
		}
		return domain.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func updateItemStock(ctx context.Context, db querier, item domain.Item) error {
	const stmt = `
UPDATE items
SET stock_quantity = $2, is_sold_out = $3, sold_at = $4, updated_at = NOW()
WHERE id = $1`

	tag, err := db.Exec(ctx, stmt, item.ID, item.StockQuantity, item.IsSoldOut, item.SoldAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update item stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func sumActiveReservations(ctx context.Context, db querier, itemID string, now time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM reservations
WHERE item_id = $1 AND status = 'active' AND expires_at > $2`

	var total int
	if err := db.QueryRow(ctx, query, itemID, now).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("sum active reservations: %w", err)
	}
	return total, nil
}
