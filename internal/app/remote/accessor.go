package remote

import (
	"context"
	"sync"
	"time"

	"github.com/neonmart/storefront-backend/pkg/logger"
	"github.com/neonmart/storefront-backend/pkg/vendure"
	"github.com/redis/go-redis/v9"
)

const (
	// TokenKeyPrefix namespaces commerce-backend session tokens in Redis
	TokenKeyPrefix = "vendure_token:"

	// DefaultCacheTTL bounds how stale a cached active order may get. The
	// cache only has to absorb bursts of reads between mutations, so it is
	// deliberately short.
	DefaultCacheTTL = 15 * time.Second

	defaultRetryBackoff = 200 * time.Millisecond
)

// TokenKey returns the durable-storage key for a session's backend token
func TokenKey(sessionID string) string {
	return TokenKeyPrefix + sessionID
}

type cachedOrder struct {
	order     *vendure.Order // nil means the backend reported no active order
	fetchedAt time.Time
}

// Accessor wraps the commerce-backend client with per-session caching and
// token continuity. Reads are retried on transport failures; mutations are
// never retried, since a timed-out mutation may still have been applied.
type Accessor struct {
	client      *vendure.Client
	rdb         *redis.Client // nil → tokens held in memory only
	cacheTTL    time.Duration
	readRetries int
	backoff     time.Duration
	now         func() time.Time

	mu     sync.Mutex
	cache  map[string]cachedOrder
	tokens map[string]string
}

// NewAccessor creates an accessor. readRetries is the number of additional
// attempts after a failed read; rdb may be nil.
func NewAccessor(client *vendure.Client, rdb *redis.Client, readRetries int) *Accessor {
	return &Accessor{
		client:      client,
		rdb:         rdb,
		cacheTTL:    DefaultCacheTTL,
		readRetries: readRetries,
		backoff:     defaultRetryBackoff,
		now:         time.Now,
		cache:       make(map[string]cachedOrder),
		tokens:      make(map[string]string),
	}
}

// ActiveOrder returns the session's active order, or nil when the backend
// reports none. Successful results are cached briefly; failures never are.
func (a *Accessor) ActiveOrder(ctx context.Context, sessionID string) (*vendure.Order, error) {
	a.mu.Lock()
	if entry, ok := a.cache[sessionID]; ok && a.now().Sub(entry.fetchedAt) < a.cacheTTL {
		a.mu.Unlock()
		return entry.order, nil
	}
	token := a.tokenLocked(ctx, sessionID)
	a.mu.Unlock()

	var order *vendure.Order
	var newToken string
	var err error
	for attempt := 0; ; attempt++ {
		order, newToken, err = a.client.ActiveOrder(ctx, token)
		if err == nil || !vendure.IsTransport(err) || attempt >= a.readRetries {
			break
		}
		logger.Warn("Active order fetch failed, retrying", map[string]interface{}{
			"session_id": sessionID,
			"attempt":    attempt + 1,
			"error":      err.Error(),
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.backoff << attempt):
		}
	}
	if err != nil {
		return nil, err
	}

	a.storeResult(ctx, sessionID, order, newToken)
	return order, nil
}

// AddItem adds the variant to the session's order and returns the new order
// state. Transport failures are not retried.
func (a *Accessor) AddItem(ctx context.Context, sessionID, variantID string, quantity int) (*vendure.Order, error) {
	return a.mutate(ctx, sessionID, func(token string) (*vendure.Order, string, error) {
		return a.client.AddItemToOrder(ctx, token, variantID, quantity)
	})
}

// RemoveLine removes an order line
func (a *Accessor) RemoveLine(ctx context.Context, sessionID, lineID string) (*vendure.Order, error) {
	return a.mutate(ctx, sessionID, func(token string) (*vendure.Order, string, error) {
		return a.client.RemoveOrderLine(ctx, token, lineID)
	})
}

// AdjustLine sets an order line's quantity
func (a *Accessor) AdjustLine(ctx context.Context, sessionID, lineID string, quantity int) (*vendure.Order, error) {
	return a.mutate(ctx, sessionID, func(token string) (*vendure.Order, string, error) {
		return a.client.AdjustOrderLine(ctx, token, lineID, quantity)
	})
}

// Invalidate drops the session's cached order so the next read refetches
func (a *Accessor) Invalidate(sessionID string) {
	a.mu.Lock()
	delete(a.cache, sessionID)
	a.mu.Unlock()
}

// Forget drops all accessor state for a session (checkout completion)
func (a *Accessor) Forget(ctx context.Context, sessionID string) {
	a.mu.Lock()
	delete(a.cache, sessionID)
	delete(a.tokens, sessionID)
	a.mu.Unlock()

	if a.rdb != nil {
		if err := a.rdb.Del(ctx, TokenKey(sessionID)).Err(); err != nil {
			logger.Warn("Failed to drop backend token", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
}

func (a *Accessor) mutate(ctx context.Context, sessionID string, call func(token string) (*vendure.Order, string, error)) (*vendure.Order, error) {
	a.mu.Lock()
	token := a.tokenLocked(ctx, sessionID)
	a.mu.Unlock()

	order, newToken, err := call(token)
	if err != nil {
		if vendure.IsTransport(err) {
			// The mutation may or may not have landed; drop the cache so
			// nothing stale is served once the backend is reachable again.
			a.Invalidate(sessionID)
		}
		return nil, err
	}

	a.storeResult(ctx, sessionID, order, newToken)
	return order, nil
}

// storeResult caches the fresh order state and persists a newly issued token
func (a *Accessor) storeResult(ctx context.Context, sessionID string, order *vendure.Order, newToken string) {
	a.mu.Lock()
	a.cache[sessionID] = cachedOrder{order: order, fetchedAt: a.now()}
	if newToken != "" {
		a.tokens[sessionID] = newToken
	}
	a.mu.Unlock()

	if newToken != "" && a.rdb != nil {
		if err := a.rdb.Set(ctx, TokenKey(sessionID), newToken, 0).Err(); err != nil {
			logger.Warn("Failed to persist backend token", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
}

// tokenLocked returns the session's backend token, hydrating once from
// durable storage. Caller must hold a.mu.
func (a *Accessor) tokenLocked(ctx context.Context, sessionID string) string {
	if token, ok := a.tokens[sessionID]; ok {
		return token
	}

	token := ""
	if a.rdb != nil {
		stored, err := a.rdb.Get(ctx, TokenKey(sessionID)).Result()
		if err == nil {
			token = stored
		} else if err != redis.Nil {
			logger.Warn("Failed to read backend token", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}

	a.tokens[sessionID] = token
	return token
}
