package cache

import (
	"context"
	"errors"

	"github.com/Kamohel0/green-public-website/internal/cart/domain"
)

// CartCache persists cart snapshots outside the process so a session's
// cart survives a restart. It is best-effort: callers log failures and
// carry on with the in-memory state.
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Set(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")
