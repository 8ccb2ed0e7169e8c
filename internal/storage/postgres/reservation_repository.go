package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/LeandroKeltech/bgcatalog/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationColumns = `id, item_id, quantity, status, customer_name, customer_email,
customer_phone, customer_message, session_key, created_at, expires_at,
confirmed_at, cancelled_at, admin_notes`

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReservationRepository) GetItemForUpdate(ctx context.Context, itemID string) (domain.Item, error) {
	return getItem(ctx, dbFromContext(ctx, r.pool), itemID, true)
}

func (r *ReservationRepository) UpdateItemStock(ctx context.Context, item domain.Item) error {
	return updateItemStock(ctx, dbFromContext(ctx, r.pool), item)
}

func (r *ReservationRepository) SumActiveReservations(ctx context.Context, itemID string, now time.Time) (int, error) {
	return sumActiveReservations(ctx, dbFromContext(ctx, r.pool), itemID, now)
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, item_id, quantity, status, customer_name, customer_email,
customer_phone, customer_message, session_key, created_at, expires_at, admin_notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := dbFromContext(ctx, r.pool).Exec(ctx, stmt,
		res.ID,
		res.ItemID,
		res.Quantity,
		res.Status,
		res.CustomerName,
		res.CustomerEmail,
		res.CustomerPhone,
		res.CustomerMessage,
		res.SessionKey,
		res.CreatedAt,
		res.ExpiresAt,
		res.AdminNotes,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrItemNotFound
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM reservations
WHERE id = $1
FOR UPDATE`

	res, err := scanReservation(dbFromContext(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) UpdateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
UPDATE reservations
SET status = $2, expires_at = $3, confirmed_at = $4, cancelled_at = $5, admin_notes = $6
WHERE id = $1`

	tag, err := dbFromContext(ctx, r.pool).Exec(ctx, stmt,
		res.ID,
		res.Status,
		res.ExpiresAt,
		res.ConfirmedAt,
		res.CancelledAt,
		res.AdminNotes,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	const stmt = `
UPDATE reservations
SET status = 'expired'
WHERE status = 'active' AND expires_at < $1`

	tag, err := dbFromContext(ctx, r.pool).Exec(ctx, stmt, now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue reservations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ReservationRepository) ListReservations(ctx context.Context, status, sessionKey string) ([]domain.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM reservations`

	var (
		conds []string
		args  []any
	)
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if sessionKey != "" {
		args = append(args, sessionKey)
		conds = append(conds, fmt.Sprintf("session_key = $%d", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += "\nWHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += "\nORDER BY created_at DESC"

	rows, err := dbFromContext(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservations: %w", rows.Err())
	}
	return out, nil
}

func (r *ReservationRepository) CountByStatus(ctx context.Context) (map[domain.ReservationStatus]int, error) {
	const query = `
SELECT status, COUNT(*)
FROM reservations
GROUP BY status`

	rows, err := dbFromContext(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ReservationStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[domain.ReservationStatus(status)] = count
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate counts: %w", rows.Err())
	}
	return counts, nil
}

func (r *ReservationRepository) SumActiveQuantity(ctx context.Context, now time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM reservations
WHERE status = 'active' AND expires_at > $1`

	var total int
	if err := dbFromContext(ctx, r.pool).QueryRow(ctx, query, now).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum active quantity: %w", err)
	}
	return total, nil
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		res    domain.Reservation
		status string
	)
	err := row.Scan(
		&res.ID, &res.ItemID, &res.Quantity, &status,
		&res.CustomerName, &res.CustomerEmail, &res.CustomerPhone, &res.CustomerMessage,
		&res.SessionKey, &res.CreatedAt, &res.ExpiresAt,
		&res.ConfirmedAt, &res.CancelledAt, &res.AdminNotes,
	)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.Status = domain.ReservationStatus(status)
	return res, nil
}
