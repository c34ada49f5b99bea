package domain

import "time"

// LineItem is one product entry in a cart. Prices are carried in minor
// units (cents) so totals stay exact over repeated additions.
type LineItem struct {
	ProductID      int64     `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceMinor int64     `json:"unit_price_minor"`
	Quantity       int       `json:"quantity"`
	ImageURL       string    `json:"image_url,omitempty"`
	Description    string    `json:"description,omitempty"`
	AddedAt        time.Time `json:"added_at"`
}

// SubtotalMinor returns the line subtotal in minor units.
func (i LineItem) SubtotalMinor() int64 {
	return i.UnitPriceMinor * int64(i.Quantity)
}

// Cart holds the ordered line items for one session. At most one line
// item exists per product ID; duplicate adds merge quantities.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TotalMinor folds the current items into a total in minor units. It is
// recomputed on every call so it always reflects the latest mutations.
func (c *Cart) TotalMinor() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.SubtotalMinor()
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a deep copy so callers never alias store-owned state.
func (c *Cart) Clone() *Cart {
	out := &Cart{
		SessionID: c.SessionID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if len(c.Items) > 0 {
		out.Items = make([]LineItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}
