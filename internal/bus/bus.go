package bus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/neonmart/storefront-backend/internal/app/model"
	"github.com/neonmart/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis pub/sub channel bridging cart events across
// processes. It plays the role browser storage events play between tabs.
const EventsChannel = "cart.events"

const subscriberBuffer = 16

// Event carries a full snapshot of the session's locally persisted cart.
// Observers of that cart replace their view wholesale on receipt; diffs are
// deliberately not supported. For mutations applied remotely the local
// snapshot is unchanged and the event is only a change notification, so
// display-level observers re-derive the reconciled cart instead of reading
// Cart.
type Event struct {
	Origin    string              `json:"origin"`
	SessionID string              `json:"sessionId"`
	Cart      model.PersistedCart `json:"cart"`
}

// CartBus fans persisted-cart mutations out to in-process subscribers and,
// when a Redis client is provided, to every other process sharing the store.
// Publishers receive their own events too, so re-render paths stay uniform.
type CartBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event

	// origin identifies this instance so the bridge can drop its own echoes
	origin string
	rdb    *redis.Client
}

// New creates a cart bus. rdb may be nil, which disables the cross-process
// bridge (single-process deployments and tests).
func New(rdb *redis.Client) *CartBus {
	return &CartBus{
		subs:   make(map[int]chan Event),
		origin: uuid.NewString(),
		rdb:    rdb,
	}
}

// Subscribe registers an observer. The returned cancel func must be called
// when the observer goes away; late events for it are dropped, not queued.
func (b *CartBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish broadcasts a cart snapshot to all subscribers, local and remote
func (b *CartBus) Publish(ctx context.Context, sessionID string, cart model.PersistedCart) {
	evt := Event{Origin: b.origin, SessionID: sessionID, Cart: cart}
	b.deliver(evt)

	if b.rdb == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.Error("Failed to marshal cart event", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return
	}
	if err := b.rdb.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		// Cross-process delivery is best effort; local subscribers already
		// have the snapshot.
		logger.Warn("Failed to publish cart event to Redis", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func (b *CartBus) deliver(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			logger.Warn("Cart event subscriber buffer full, event dropped", map[string]interface{}{
				"subscriber_id": id,
				"session_id":    evt.SessionID,
			})
		}
	}
}

// handleRemote replays a bridged event to local subscribers, dropping echoes
// of this instance's own publishes.
func (b *CartBus) handleRemote(payload []byte) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		logger.Warn("Failed to parse bridged cart event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if evt.Origin == b.origin {
		return
	}
	b.deliver(evt)
}

// Run consumes the Redis bridge until ctx is done. No-op without Redis.
func (b *CartBus) Run(ctx context.Context) {
	if b.rdb == nil {
		return
	}

	pubsub := b.rdb.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()

	logger.Info("Cart event bridge started", map[string]interface{}{
		"channel": EventsChannel,
	})

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleRemote([]byte(msg.Payload))
		}
	}
}
