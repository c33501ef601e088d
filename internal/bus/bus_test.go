package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/neonmart/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCart() model.PersistedCart {
	cart := model.PersistedCart{
		Items: []model.CartLine{
			{ID: "l1", ProductID: "p1", Name: "Widget", UnitPrice: 9.99, Quantity: 2},
		},
	}
	cart.Recompute()
	return cart
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cart event")
		return Event{}
	}
}

func TestCartBus_PublishReachesAllSubscribers(t *testing.T) {
	b := New(nil)

	first, cancelFirst := b.Subscribe()
	defer cancelFirst()
	second, cancelSecond := b.Subscribe()
	defer cancelSecond()

	b.Publish(context.Background(), "sess-1", sampleCart())

	evtA := receive(t, first)
	evtB := receive(t, second)
	assert.Equal(t, "sess-1", evtA.SessionID)
	assert.Equal(t, 2, evtA.Cart.TotalItems)
	assert.Equal(t, evtA.Cart, evtB.Cart)
}

func TestCartBus_SnapshotCarriesConsistentTotals(t *testing.T) {
	b := New(nil)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(context.Background(), "sess-1", sampleCart())
	evt := receive(t, ch)

	sum := 0
	price := 0.0
	for _, line := range evt.Cart.Items {
		sum += line.Quantity
		price += line.UnitPrice * float64(line.Quantity)
	}
	assert.Equal(t, sum, evt.Cart.TotalItems)
	assert.Equal(t, price, evt.Cart.TotalPrice)
}

func TestCartBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := New(nil)
	ch, cancel := b.Subscribe()
	cancel()

	b.Publish(context.Background(), "sess-1", sampleCart())

	_, open := <-ch
	assert.False(t, open)
}

func TestCartBus_BridgeDeliversForeignEvents(t *testing.T) {
	b := New(nil)
	ch, cancel := b.Subscribe()
	defer cancel()

	// An event originating in another process becomes visible here without
	// any local mutation, i.e. cross-context propagation.
	foreign := Event{Origin: "other-instance", SessionID: "sess-1", Cart: sampleCart()}
	payload, err := json.Marshal(foreign)
	require.NoError(t, err)

	b.handleRemote(payload)

	evt := receive(t, ch)
	assert.Equal(t, "sess-1", evt.SessionID)
	assert.Equal(t, 2, evt.Cart.TotalItems)
}

func TestCartBus_BridgeDropsOwnEcho(t *testing.T) {
	b := New(nil)
	ch, cancel := b.Subscribe()
	defer cancel()

	echo := Event{Origin: b.origin, SessionID: "sess-1", Cart: sampleCart()}
	payload, err := json.Marshal(echo)
	require.NoError(t, err)

	b.handleRemote(payload)

	select {
	case <-ch:
		t.Fatal("echo of own publish must not be redelivered")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCartBus_BridgeIgnoresGarbage(t *testing.T) {
	b := New(nil)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.handleRemote([]byte("not json"))

	select {
	case <-ch:
		t.Fatal("unparsable bridge payload must be dropped")
	case <-time.After(50 * time.Millisecond):
	}
}
