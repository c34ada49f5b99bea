package domain

import "time"

// Product is a catalog row. PriceMinor is the unit price in minor units
// (cents) of the store currency.
type Product struct {
	ID          int64
	Name        string
	Description string
	PriceMinor  int64
	ImageURL    string
	CreatedAt   time.Time
}
