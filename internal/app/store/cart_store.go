package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neonmart/storefront-backend/internal/app/model"
	"github.com/neonmart/storefront-backend/internal/bus"
	"github.com/neonmart/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// CartKeyPrefix namespaces persisted carts in Redis
const CartKeyPrefix = "cart:"

// CartKey returns the durable-storage key for a session's cart
func CartKey(sessionID string) string {
	return CartKeyPrefix + sessionID
}

// CartStore owns the persisted (local) cart per session. The in-memory map is
// authoritative for the running process; Redis is a best-effort durable copy,
// so a failed write never fails the operation. Every mutation publishes
// exactly one full snapshot on the bus.
type CartStore struct {
	mu      sync.Mutex
	carts   map[string]model.PersistedCart
	touched map[string]time.Time

	rdb *redis.Client // nil → in-memory only
	bus *bus.CartBus
	now func() time.Time
}

// AddItemInput carries the add-time snapshot for a new line. UnitPrice is in
// major currency units; remote prices must be converted before reaching here.
// CurrencyCode is optional and, when present, becomes the cart's label.
type AddItemInput struct {
	ProductID    string
	VariantID    string
	Name         string
	UnitPrice    float64
	CurrencyCode string
	ImageURL     string
}

// NewCartStore creates a cart store. rdb may be nil for tests and
// single-process setups without durability.
func NewCartStore(rdb *redis.Client, eventBus *bus.CartBus) *CartStore {
	return &CartStore{
		carts:   make(map[string]model.PersistedCart),
		touched: make(map[string]time.Time),
		rdb:     rdb,
		bus:     eventBus,
		now:     time.Now,
	}
}

// Get returns the session's cart, hydrating from durable storage on cold
// start. A missing or unparsable stored payload yields an empty cart.
func (s *CartStore) Get(ctx context.Context, sessionID string) model.PersistedCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCart(s.load(ctx, sessionID))
}

// AddItem appends a new line with quantity 1, or increments the quantity of
// the existing line for the same (product, variant) pair.
func (s *CartStore) AddItem(ctx context.Context, sessionID string, input AddItemInput) model.PersistedCart {
	s.mu.Lock()
	cart := s.load(ctx, sessionID)

	if i := cart.FindByKey(input.ProductID, input.VariantID); i >= 0 {
		cart.Items[i].Quantity++
	} else {
		cart.Items = append(cart.Items, model.CartLine{
			ID:        model.NewLineID(input.ProductID, input.VariantID, s.now()),
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Name:      input.Name,
			UnitPrice: input.UnitPrice,
			Quantity:  1,
			ImageURL:  input.ImageURL,
		})
	}
	if input.CurrencyCode != "" {
		cart.CurrencyCode = input.CurrencyCode
	}

	return s.commit(ctx, sessionID, cart)
}

// RemoveItem deletes the line with the given id. Removing an unknown line is
// a no-op, not an error.
func (s *CartStore) RemoveItem(ctx context.Context, sessionID, lineID string) model.PersistedCart {
	s.mu.Lock()
	cart := s.load(ctx, sessionID)

	if i := cart.FindLine(lineID); i >= 0 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	}

	return s.commit(ctx, sessionID, cart)
}

// UpdateQuantity sets a line's quantity to the given absolute value. A value
// of zero or less removes the line entirely.
func (s *CartStore) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) model.PersistedCart {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, lineID)
	}

	s.mu.Lock()
	cart := s.load(ctx, sessionID)

	if i := cart.FindLine(lineID); i >= 0 {
		cart.Items[i].Quantity = quantity
	}

	return s.commit(ctx, sessionID, cart)
}

// Clear resets the session's cart to empty
func (s *CartStore) Clear(ctx context.Context, sessionID string) model.PersistedCart {
	s.mu.Lock()
	return s.commit(ctx, sessionID, model.EmptyCart())
}

// Prune drops in-memory carts idle longer than maxIdle. Durable copies stay
// in Redis, so a pruned session hydrates again on next access.
func (s *CartStore) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	pruned := 0
	for sessionID, last := range s.touched {
		if last.Before(cutoff) {
			delete(s.carts, sessionID)
			delete(s.touched, sessionID)
			pruned++
		}
	}
	return pruned
}

// load returns the current cart for the session, hydrating once from Redis.
// Caller must hold s.mu.
func (s *CartStore) load(ctx context.Context, sessionID string) model.PersistedCart {
	s.touched[sessionID] = s.now()

	if cart, ok := s.carts[sessionID]; ok {
		return cloneCart(cart)
	}

	cart := model.EmptyCart()
	if s.rdb != nil {
		data, err := s.rdb.Get(ctx, CartKey(sessionID)).Bytes()
		switch {
		case err == redis.Nil:
			// first access, nothing stored yet
		case err != nil:
			logger.Warn("Failed to read persisted cart, starting empty", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		default:
			parsed, perr := model.DecodeCart(data)
			if perr != nil {
				logger.Error("Corrupted persisted cart, starting empty", perr, map[string]interface{}{
					"session_id": sessionID,
				})
			} else {
				cart = parsed
			}
		}
	}

	s.carts[sessionID] = cloneCart(cart)
	return cart
}

// commit recomputes totals, stores, persists and broadcasts. It unlocks s.mu.
func (s *CartStore) commit(ctx context.Context, sessionID string, cart model.PersistedCart) model.PersistedCart {
	cart.Recompute()
	s.carts[sessionID] = cloneCart(cart)
	s.touched[sessionID] = s.now()
	s.persist(ctx, sessionID, cart)
	s.mu.Unlock()

	s.bus.Publish(ctx, sessionID, cloneCart(cart))

	return cart
}

// persist writes the cart to durable storage. Failures are logged, never
// surfaced: the in-memory cart stays authoritative for this session.
func (s *CartStore) persist(ctx context.Context, sessionID string, cart model.PersistedCart) {
	if s.rdb == nil {
		return
	}

	data, err := model.EncodeCart(cart)
	if err != nil {
		logger.Error("Failed to encode cart for persistence", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return
	}

	if err := s.rdb.Set(ctx, CartKey(sessionID), data, 0).Err(); err != nil {
		logger.Warn("Failed to persist cart, continuing with in-memory state", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func cloneCart(cart model.PersistedCart) model.PersistedCart {
	items := make([]model.CartLine, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	return cart
}

// String implements fmt.Stringer for debug logging
func (s *CartStore) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("CartStore(%d sessions)", len(s.carts))
}
