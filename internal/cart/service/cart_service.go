package service

import (
	"context"
	"errors"
	"time"

	"github.com/Kamohel0/green-public-website/internal/cart/cache"
	"github.com/Kamohel0/green-public-website/internal/cart/domain"
	"github.com/Kamohel0/green-public-website/internal/cart/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service fronts the in-memory cart store and mirrors every mutation to
// the snapshot cache so a session's cart survives a process restart. The
// memory store stays authoritative; cache failures are logged, never
// surfaced, so cart operations keep their cannot-fail contract.
type Service struct {
	store store.CartStore
	cache cache.CartCache
	sfg   singleflight.Group // collapses concurrent restores for one session
	log   *zap.Logger
}

func NewService(cartStore store.CartStore, cartCache cache.CartCache, log *zap.Logger) *Service {
	return &Service{
		store: cartStore,
		cache: cartCache,
		log:   log,
	}
}

// Get returns the session's cart, rehydrating it from the snapshot cache
// the first time a session is seen after a restart.
func (s *Service) Get(ctx context.Context, sessionID string) *domain.Cart {
	if cart, ok := s.store.Get(sessionID); ok {
		return cart
	}

	v, _, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		// Re-check under singleflight: another caller may have restored.
		if cart, ok := s.store.Get(sessionID); ok {
			return cart, nil
		}

		snapshot, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			snapshot.SessionID = sessionID
			s.store.Restore(snapshot)
			if cart, ok := s.store.Get(sessionID); ok {
				return cart, nil
			}
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cart snapshot restore failed", zap.String("session_id", sessionID), zap.Error(err))
		}

		return &domain.Cart{SessionID: sessionID}, nil
	})

	return v.(*domain.Cart)
}

func (s *Service) Add(ctx context.Context, sessionID string, item domain.LineItem) *domain.Cart {
	s.restoreIfCold(ctx, sessionID)
	cart := s.store.Add(sessionID, item)
	s.persist(sessionID, cart)
	return cart
}

func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) *domain.Cart {
	s.restoreIfCold(ctx, sessionID)
	cart := s.store.UpdateQuantity(sessionID, productID, quantity)
	s.persist(sessionID, cart)
	return cart
}

func (s *Service) Remove(ctx context.Context, sessionID string, productID int64) *domain.Cart {
	s.restoreIfCold(ctx, sessionID)
	cart := s.store.Remove(sessionID, productID)
	s.persist(sessionID, cart)
	return cart
}

func (s *Service) Clear(ctx context.Context, sessionID string) *domain.Cart {
	cart := s.store.Clear(sessionID)

	cctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(cctx, sessionID); err != nil {
		s.log.Warn("cart snapshot delete failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return cart
}

// restoreIfCold pulls the persisted snapshot into memory before a mutation
// so a restart does not silently drop the lines added earlier.
func (s *Service) restoreIfCold(ctx context.Context, sessionID string) {
	if _, ok := s.store.Get(sessionID); !ok {
		s.Get(ctx, sessionID)
	}
}

func (s *Service) persist(sessionID string, cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, sessionID, cart); err != nil {
		s.log.Warn("cart snapshot persist failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}
