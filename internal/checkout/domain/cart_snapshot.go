package domain

import (
	"time"

	cartdomain "github.com/Kamohel0/green-public-website/internal/cart/domain"
)

type CartSnapshotItem struct {
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	SubtotalMinor  int64  `json:"subtotal_minor"`
}

// CartSnapshot freezes the full cart state at checkout time, in minor
// units, so the charged amount can always be reconciled later even if
// the live cart changes.
type CartSnapshot struct {
	Items      []CartSnapshotItem `json:"items"`
	TotalMinor int64              `json:"total_minor"`
	Currency   string             `json:"currency"`
	CapturedAt time.Time          `json:"captured_at"`
}

func BuildSnapshot(cart *cartdomain.Cart, currency string) *CartSnapshot {
	snapshot := &CartSnapshot{
		Items:      make([]CartSnapshotItem, len(cart.Items)),
		TotalMinor: cart.TotalMinor(),
		Currency:   currency,
		CapturedAt: time.Now(),
	}
	for i, item := range cart.Items {
		snapshot.Items[i] = CartSnapshotItem{
			ProductID:      item.ProductID,
			ProductName:    item.Name,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
			SubtotalMinor:  item.SubtotalMinor(),
		}
	}
	return snapshot
}
