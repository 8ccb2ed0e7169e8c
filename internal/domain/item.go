package domain

import "time"

// Item is a sellable game tracked with a physical stock count. Stock is only
// reduced by confirming a reservation, never by creating one.
type Item struct {
	ID            string
	Name          string
	StockQuantity int
	IsSoldOut     bool
	SoldAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
