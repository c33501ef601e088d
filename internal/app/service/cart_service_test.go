package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/neonmart/storefront-backend/internal/app/model"
	"github.com/neonmart/storefront-backend/internal/app/remote"
	"github.com/neonmart/storefront-backend/internal/app/store"
	"github.com/neonmart/storefront-backend/internal/bus"
	"github.com/neonmart/storefront-backend/pkg/vendure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const activeOrderJSON = `{"data":{"activeOrder":{"id":"ord-1","code":"C1","state":"AddingItems","totalQuantity":2,"totalWithTax":5000,"currencyCode":"USD","lines":[{"id":"line-1","quantity":2,"linePrice":4500,"linePriceWithTax":5000,"productVariant":{"id":"var-1","name":"Widget Large","sku":"W-L","product":{"id":"prod-1","name":"Widget","slug":"widget","featuredAsset":{"id":"a1","preview":"/widget.png"}}}}]}}}`

const noOrderJSON = `{"data":{"activeOrder":null}}`

const twoLineOrderJSON = `{"data":{"activeOrder":{"id":"ord-2","code":"C2","state":"AddingItems","totalQuantity":3,"totalWithTax":8000,"currencyCode":"USD","lines":[{"id":"line-1","quantity":2,"linePriceWithTax":5000,"productVariant":{"id":"var-1","name":"Widget Large","product":{"id":"prod-1","name":"Widget","slug":"widget"}}},{"id":"line-2","quantity":1,"linePriceWithTax":3000,"productVariant":{"id":"var-2","name":"Gizmo","product":{"id":"prod-2","name":"Gizmo","slug":"gizmo"}}}]}}}`

// testBackend scripts the shop API per request kind
type testBackend struct {
	mu         sync.Mutex
	activeBody string
	mutateBody string
	mutateCode int
	requests   []string
	server     *httptest.Server
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	tb := &testBackend{activeBody: noOrderJSON, mutateCode: http.StatusOK}
	tb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		tb.mu.Lock()
		defer tb.mu.Unlock()
		switch {
		case strings.Contains(string(body), "activeOrder"):
			tb.requests = append(tb.requests, "activeOrder")
			fmt.Fprint(w, tb.activeBody)
		default:
			tb.requests = append(tb.requests, "mutation")
			if tb.mutateCode != http.StatusOK {
				w.WriteHeader(tb.mutateCode)
				return
			}
			fmt.Fprint(w, tb.mutateBody)
		}
	}))
	t.Cleanup(tb.server.Close)
	return tb
}

func (tb *testBackend) set(active, mutate string, mutateCode int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.activeBody = active
	tb.mutateBody = mutate
	tb.mutateCode = mutateCode
}

func newTestService(t *testing.T, tb *testBackend) (CartService, *store.CartStore, *remote.Accessor) {
	t.Helper()
	client, err := vendure.NewClient(vendure.Config{APIURL: tb.server.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	accessor := remote.NewAccessor(client, nil, 0)
	eventBus := bus.New(nil)
	cartStore := store.NewCartStore(nil, eventBus)
	return NewCartService(cartStore, accessor, eventBus), cartStore, accessor
}

func widgetRequest() AddItemRequest {
	return AddItemRequest{
		ProductID:      "prod-1",
		VariantID:      "var-1",
		Name:           "Widget",
		UnitPriceMinor: 2999,
		ImageURL:       "/widget.png",
	}
}

func TestCartService_NoActiveOrderUsesLocalCart(t *testing.T) {
	tb := newTestBackend(t)
	svc, _, _ := newTestService(t, tb)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "sess-1", widgetRequest())

	require.NoError(t, err)
	assert.Equal(t, model.SourceLocal, cart.Source)
	require.Len(t, cart.Items, 1)
	assert.InDelta(t, 29.99, cart.Items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 29.99, cart.TotalPrice, 1e-9)
}

func TestCartService_ActiveOrderUsesRemoteCart(t *testing.T) {
	tb := newTestBackend(t)
	tb.set(activeOrderJSON, strings.Replace(activeOrderJSON, "activeOrder", "addItemToOrder", 1), http.StatusOK)
	svc, _, _ := newTestService(t, tb)

	cart := svc.GetCart(context.Background(), "sess-1")

	assert.Equal(t, model.SourceRemote, cart.Source)
	assert.Equal(t, "USD", cart.CurrencyCode)
	assert.Equal(t, 2, cart.TotalItems)
	// linePriceWithTax 5000 over quantity 2 → $25.00 per unit
	require.Len(t, cart.Items, 1)
	assert.InDelta(t, 25.0, cart.Items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 50.0, cart.TotalPrice, 1e-9)
}

func TestCartService_RemoteCartShadowsStaleLocalLines(t *testing.T) {
	tb := newTestBackend(t)
	tb.set(twoLineOrderJSON, "", http.StatusOK)
	svc, cartStore, _ := newTestService(t, tb)
	ctx := context.Background()

	// A local line left over from an offline spell must not merge into the
	// live remote cart
	cartStore.AddItem(ctx, "sess-1", store.AddItemInput{ProductID: "p9", Name: "Stale", UnitPrice: 5})

	cart := svc.GetCart(ctx, "sess-1")

	assert.Equal(t, model.SourceRemote, cart.Source)
	assert.Equal(t, 3, cart.TotalItems, "remote count alone, never remote plus stale local")
	require.Len(t, cart.Items, 2)
	for _, line := range cart.Items {
		assert.NotEqual(t, "Stale", line.Name)
	}
}

func TestCartService_FetchFailureFallsBackToLocal(t *testing.T) {
	tb := newTestBackend(t)
	svc, cartStore, _ := newTestService(t, tb)
	ctx := context.Background()

	cartStore.AddItem(ctx, "sess-1", store.AddItemInput{ProductID: "p9", Name: "Kept", UnitPrice: 5})
	tb.server.Close()

	cart := svc.GetCart(ctx, "sess-1")

	assert.Equal(t, model.SourceLocal, cart.Source)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Kept", cart.Items[0].Name)
}

func TestCartService_AddFailoverIsSilent(t *testing.T) {
	tb := newTestBackend(t)
	tb.set(activeOrderJSON, "", http.StatusBadGateway)
	svc, _, _ := newTestService(t, tb)
	ctx := context.Background()

	// An active order exists, so the add goes remote; the remote write dies
	// on transport, and the same change lands locally with no error exposed.
	cart, err := svc.AddItem(ctx, "sess-1", widgetRequest())

	require.NoError(t, err)
	assert.Equal(t, model.SourceLocal, cart.Source)
	require.Len(t, cart.Items, 1)
	assert.InDelta(t, 29.99, cart.Items[0].UnitPrice, 1e-9)
	assert.Equal(t, 1, cart.TotalItems)
}

func TestCartService_FallbackLineKeepsItsCurrency(t *testing.T) {
	tb := newTestBackend(t)
	tb.set(activeOrderJSON, "", http.StatusBadGateway)
	svc, _, _ := newTestService(t, tb)

	req := widgetRequest()
	req.CurrencyCode = "EUR"
	cart, err := svc.AddItem(context.Background(), "sess-1", req)

	require.NoError(t, err)
	assert.Equal(t, model.SourceLocal, cart.Source)
	assert.Equal(t, "EUR", cart.CurrencyCode)
}

func TestCartService_BusinessErrorSurfacesWithoutFallback(t *testing.T) {
	tb := newTestBackend(t)
	tb.set(activeOrderJSON, `{"data":{"addItemToOrder":{"errorCode":"INSUFFICIENT_STOCK_ERROR","message":"Only 1 left"}}}`, http.StatusOK)
	svc, cartStore, _ := newTestService(t, tb)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", widgetRequest())

	var apiErr *vendure.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INSUFFICIENT_STOCK_ERROR", apiErr.ErrorCode)
	// No silent local write on a business refusal
	assert.Empty(t, cartStore.Get(ctx, "sess-1").Items)
}

func TestCartService_RemoveFailoverAppliesLocally(t *testing.T) {
	tb := newTestBackend(t)
	tb.set(activeOrderJSON, "", http.StatusBadGateway)
	svc, cartStore, _ := newTestService(t, tb)
	ctx := context.Background()

	local := cartStore.AddItem(ctx, "sess-1", store.AddItemInput{ProductID: "p9", Name: "Doomed", UnitPrice: 5})
	lineID := local.Items[0].ID

	cart, err := svc.RemoveItem(ctx, "sess-1", lineID)

	require.NoError(t, err)
	assert.Equal(t, model.SourceLocal, cart.Source)
	assert.Empty(t, cart.Items)
}

func TestCartService_RemoveFailoverUnknownLineIsNoop(t *testing.T) {
	tb := newTestBackend(t)
	tb.set(activeOrderJSON, "", http.StatusBadGateway)
	svc, _, _ := newTestService(t, tb)

	cart, err := svc.RemoveItem(context.Background(), "sess-1", "remote-only-line")

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_UpdateQuantityZeroRemoves(t *testing.T) {
	tb := newTestBackend(t)
	svc, _, _ := newTestService(t, tb)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "sess-1", widgetRequest())
	require.NoError(t, err)
	lineID := cart.Items[0].ID

	for _, quantity := range []int{0, -3} {
		cart, err = svc.UpdateQuantity(ctx, "sess-1", lineID, quantity)
		require.NoError(t, err)
		assert.Empty(t, cart.Items, "quantity %d must remove the line", quantity)
	}
}

func TestCartService_UpdateQuantityLocal(t *testing.T) {
	tb := newTestBackend(t)
	svc, _, _ := newTestService(t, tb)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "sess-1", widgetRequest())
	require.NoError(t, err)
	lineID := cart.Items[0].ID

	cart, err = svc.UpdateQuantity(ctx, "sess-1", lineID, 4)

	require.NoError(t, err)
	assert.Equal(t, 4, cart.TotalItems)
	assert.InDelta(t, 4*29.99, cart.TotalPrice, 1e-9)
}

func TestCartService_SourceIsReevaluatedPerCall(t *testing.T) {
	tb := newTestBackend(t)
	svc, _, accessor := newTestService(t, tb)
	ctx := context.Background()

	// First call: no active order → local
	cart := svc.GetCart(ctx, "sess-1")
	assert.Equal(t, model.SourceLocal, cart.Source)

	// Backend now has an order; nothing sticky about the earlier decision
	tb.set(activeOrderJSON, "", http.StatusOK)
	accessor.Invalidate("sess-1")

	cart = svc.GetCart(ctx, "sess-1")
	assert.Equal(t, model.SourceRemote, cart.Source)
}

func TestCartService_ConcurrentMutationOfSameLineRejected(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "activeOrder") {
			fmt.Fprint(w, activeOrderJSON)
			return
		}
		<-release
		fmt.Fprint(w, strings.Replace(activeOrderJSON, "activeOrder", "adjustOrderLine", 1))
	}))
	defer slow.Close()
	defer close(release)

	client, err := vendure.NewClient(vendure.Config{APIURL: slow.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	eventBus := bus.New(nil)
	svc := NewCartService(store.NewCartStore(nil, eventBus), remote.NewAccessor(client, nil, 0), eventBus)
	ctx := context.Background()

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := svc.UpdateQuantity(ctx, "sess-1", "line-1", 3)
		done <- err
	}()
	<-started
	time.Sleep(100 * time.Millisecond) // let the first mutation reach the backend

	_, err = svc.UpdateQuantity(ctx, "sess-1", "line-1", 1)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	release <- struct{}{}
	require.NoError(t, <-done)
}

func TestCartService_DistinctLinesMutateConcurrently(t *testing.T) {
	g := inflightGuard{keys: make(map[string]struct{})}

	require.NoError(t, g.acquire("sess-1", "line-1"))
	assert.NoError(t, g.acquire("sess-1", "line-2"), "distinct lines must not contend")
	assert.NoError(t, g.acquire("sess-2", "line-1"), "distinct sessions must not contend")
	assert.ErrorIs(t, g.acquire("sess-1", "line-1"), ErrMutationInFlight)

	g.release("sess-1", "line-1")
	assert.NoError(t, g.acquire("sess-1", "line-1"))
}

func TestCartService_ClearEmptiesLocalCart(t *testing.T) {
	tb := newTestBackend(t)
	svc, _, _ := newTestService(t, tb)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", widgetRequest())
	require.NoError(t, err)

	cart := svc.Clear(ctx, "sess-1")

	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)
}

func TestCartService_CompleteCheckoutResetsEverything(t *testing.T) {
	tb := newTestBackend(t)
	tb.set(activeOrderJSON, "", http.StatusOK)
	svc, cartStore, _ := newTestService(t, tb)
	ctx := context.Background()

	cartStore.AddItem(ctx, "sess-1", store.AddItemInput{ProductID: "p9", Name: "Leftover", UnitPrice: 5})

	cart := svc.CompleteCheckout(ctx, "sess-1")

	assert.Empty(t, cart.Items)
	assert.Empty(t, cartStore.Get(ctx, "sess-1").Items)
}
