package store

import (
	"sync"
	"time"

	"github.com/Kamohel0/green-public-website/internal/cart/domain"
)

const (
	// IdleTTL is how long an untouched cart survives before eviction.
	IdleTTL = 24 * time.Hour

	// CleanupInterval is how often the background eviction runs.
	CleanupInterval = 10 * time.Minute
)

// MemoryStore implements CartStore with in-memory storage. One RWMutex
// guards the whole collection so each operation is atomic even when
// handlers run on separate goroutines.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart // sessionID -> cart

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewMemoryStore creates a new in-memory cart store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		carts:       make(map[string]*domain.Cart),
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdleCarts()
		case <-s.stopCleanup:
			return
		}
	}
}

// evictIdleCarts drops carts that have not been touched within IdleTTL.
func (s *MemoryStore) evictIdleCarts() {
	cutoff := time.Now().Add(-IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for sessionID, cart := range s.carts {
		if cart.UpdatedAt.Before(cutoff) {
			delete(s.carts, sessionID)
		}
	}
}

func (s *MemoryStore) Get(sessionID string) (*domain.Cart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, exists := s.carts[sessionID]
	if !exists {
		return nil, false
	}
	return cart.Clone(), true
}

func (s *MemoryStore) Add(sessionID string, item domain.LineItem) *domain.Cart {
	now := time.Now()
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	item.AddedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.getOrCreateLocked(sessionID, now)

	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			// Merge-add: only the quantity changes, display fields keep
			// their first-written values.
			cart.Items[i].Quantity += item.Quantity
			cart.UpdatedAt = now
			return cart.Clone()
		}
	}

	cart.Items = append(cart.Items, item)
	cart.UpdatedAt = now
	return cart.Clone()
}

func (s *MemoryStore) UpdateQuantity(sessionID string, productID int64, quantity int) *domain.Cart {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.carts[sessionID]
	if !exists {
		return s.getOrCreateLocked(sessionID, time.Now()).Clone()
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			cart.UpdatedAt = time.Now()
			break
		}
	}
	return cart.Clone()
}

func (s *MemoryStore) Remove(sessionID string, productID int64) *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.carts[sessionID]
	if !exists {
		return s.getOrCreateLocked(sessionID, time.Now()).Clone()
	}

	for i, item := range cart.Items {
		if item.ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			cart.UpdatedAt = time.Now()
			break
		}
	}
	return cart.Clone()
}

func (s *MemoryStore) Clear(sessionID string) *domain.Cart {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.getOrCreateLocked(sessionID, now)
	cart.Items = nil
	cart.UpdatedAt = now
	return cart.Clone()
}

func (s *MemoryStore) Restore(cart *domain.Cart) {
	if cart == nil || cart.SessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.SessionID] = cart.Clone()
}

// getOrCreateLocked returns the session's cart, creating an empty one if
// needed. Caller must hold the write lock.
func (s *MemoryStore) getOrCreateLocked(sessionID string, now time.Time) *domain.Cart {
	cart, exists := s.carts[sessionID]
	if !exists {
		cart = &domain.Cart{
			SessionID: sessionID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.carts[sessionID] = cart
	}
	return cart
}

// Close stops the background eviction and waits for it to finish.
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
