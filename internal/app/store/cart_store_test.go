package store

import (
	"context"
	"testing"
	"time"

	"github.com/neonmart/storefront-backend/internal/app/model"
	"github.com/neonmart/storefront-backend/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*CartStore, <-chan bus.Event) {
	t.Helper()
	eventBus := bus.New(nil)
	events, cancel := eventBus.Subscribe()
	t.Cleanup(cancel)
	return NewCartStore(nil, eventBus), events
}

func widgetInput() AddItemInput {
	return AddItemInput{
		ProductID: "p1",
		Name:      "Widget",
		UnitPrice: 9.99,
		ImageURL:  "/widget.png",
	}
}

func drainEvents(ch <-chan bus.Event) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		case <-time.After(50 * time.Millisecond):
			return n
		}
	}
}

func TestCartStore_GetStartsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	cart := s.Get(context.Background(), "sess-1")

	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, 0.0, cart.TotalPrice)
}

func TestCartStore_AddItemDeduplicatesByProductAndVariant(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, "sess-1", widgetInput())
	cart := s.AddItem(ctx, "sess-1", widgetInput())

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 2, cart.TotalItems)
	assert.InDelta(t, 19.98, cart.TotalPrice, 1e-9)
}

func TestCartStore_AddItemDistinctVariantsGetDistinctLines(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	small := widgetInput()
	small.VariantID = "v-small"
	large := widgetInput()
	large.VariantID = "v-large"

	s.AddItem(ctx, "sess-1", small)
	cart := s.AddItem(ctx, "sess-1", large)

	require.Len(t, cart.Items, 2)
	assert.NotEqual(t, cart.Items[0].ID, cart.Items[1].ID)
}

func TestCartStore_RemoveItemIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cart := s.AddItem(ctx, "sess-1", widgetInput())
	lineID := cart.Items[0].ID

	cart = s.RemoveItem(ctx, "sess-1", lineID)
	assert.Empty(t, cart.Items)

	// Removing again, or removing an id that never existed, stays a no-op
	cart = s.RemoveItem(ctx, "sess-1", lineID)
	assert.Empty(t, cart.Items)
	cart = s.RemoveItem(ctx, "sess-1", "never-existed")
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)
}

func TestCartStore_UpdateQuantitySetsAbsoluteValue(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cart := s.AddItem(ctx, "sess-1", widgetInput())
	lineID := cart.Items[0].ID

	cart = s.UpdateQuantity(ctx, "sess-1", lineID, 5)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems)
	assert.InDelta(t, 49.95, cart.TotalPrice, 1e-9)
}

func TestCartStore_UpdateQuantityZeroOrNegativeRemovesLine(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, quantity := range []int{0, -5} {
		cart := s.AddItem(ctx, "sess-1", widgetInput())
		lineID := cart.Items[0].ID

		cart = s.UpdateQuantity(ctx, "sess-1", lineID, quantity)

		assert.Empty(t, cart.Items, "quantity %d must remove the line", quantity)
	}
}

func TestCartStore_ClearResetsCart(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, "sess-1", widgetInput())
	other := widgetInput()
	other.ProductID = "p2"
	s.AddItem(ctx, "sess-1", other)

	cart := s.Clear(ctx, "sess-1")

	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, 0.0, cart.TotalPrice)
}

func TestCartStore_SessionsAreIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, "sess-1", widgetInput())

	assert.Empty(t, s.Get(ctx, "sess-2").Items)
	assert.Len(t, s.Get(ctx, "sess-1").Items, 1)
}

func TestCartStore_EveryMutationBroadcastsExactlyOnce(t *testing.T) {
	s, events := newTestStore(t)
	ctx := context.Background()

	cart := s.AddItem(ctx, "sess-1", widgetInput())
	lineID := cart.Items[0].ID
	s.UpdateQuantity(ctx, "sess-1", lineID, 3)
	s.RemoveItem(ctx, "sess-1", lineID)
	s.Clear(ctx, "sess-1")

	assert.Equal(t, 4, drainEvents(events))
}

func TestCartStore_BroadcastCarriesFullSnapshot(t *testing.T) {
	s, events := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, "sess-1", widgetInput())

	select {
	case evt := <-events:
		assert.Equal(t, "sess-1", evt.SessionID)
		require.Len(t, evt.Cart.Items, 1)
		assert.Equal(t, 1, evt.Cart.TotalItems)
		assert.InDelta(t, 9.99, evt.Cart.TotalPrice, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("expected a cart event after AddItem")
	}
}

func TestCartStore_ReturnedCartIsACopy(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cart := s.AddItem(ctx, "sess-1", widgetInput())
	cart.Items[0].Quantity = 99

	fresh := s.Get(ctx, "sess-1")
	assert.Equal(t, 1, fresh.Items[0].Quantity)
}

func TestCartStore_PruneDropsIdleSessions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }
	s.AddItem(ctx, "sess-old", widgetInput())

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	s.AddItem(ctx, "sess-fresh", widgetInput())

	pruned := s.Prune(time.Hour)

	assert.Equal(t, 1, pruned)
	// Without Redis the pruned session simply starts empty again
	assert.Empty(t, s.Get(ctx, "sess-old").Items)
	assert.Len(t, s.Get(ctx, "sess-fresh").Items, 1)
}

func TestDecodeCart_AcceptsLegacyPayload(t *testing.T) {
	legacy := []byte(`{"items":[{"id":"l1","productId":"p1","name":"Widget","unitPrice":9.99,"quantity":2}],"totalItems":2,"totalPrice":19.98}`)

	cart, err := model.DecodeCart(legacy)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.TotalItems)
}
