package store

import (
	"github.com/Kamohel0/green-public-website/internal/cart/domain"
)

// CartStore is the single source of truth for what is in each session's
// cart. Mutations never fail: out-of-range quantities are clamped and
// operations on unknown items are silent no-ops, so every method returns
// the resulting cart snapshot instead of an error.
type CartStore interface {
	// Get returns a snapshot of the session's cart. ok is false when the
	// session has never touched the store (distinct from an empty cart).
	Get(sessionID string) (cart *domain.Cart, ok bool)

	// Add merges the item into the cart: an existing line with the same
	// product ID gains the added quantity (display fields keep their
	// first-written values), otherwise the item is appended preserving
	// insertion order. Non-positive quantities are treated as 1.
	Add(sessionID string, item domain.LineItem) *domain.Cart

	// UpdateQuantity sets the line's quantity to max(1, quantity). If the
	// product is not in the cart this is a no-op; quantity edits never
	// remove a line (removal is explicit).
	UpdateQuantity(sessionID string, productID int64, quantity int) *domain.Cart

	// Remove deletes the line if present; idempotent otherwise.
	Remove(sessionID string, productID int64) *domain.Cart

	// Clear unconditionally empties the cart. Idempotent.
	Clear(sessionID string) *domain.Cart

	// Restore replaces the session's cart wholesale, used when rehydrating
	// a snapshot persisted outside the store.
	Restore(cart *domain.Cart)

	// Close shuts down the store and any background processes.
	Close() error
}
