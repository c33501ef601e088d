package service

import (
	"context"
	"errors"
	"sync"

	"github.com/neonmart/storefront-backend/internal/app/model"
	"github.com/neonmart/storefront-backend/internal/app/remote"
	"github.com/neonmart/storefront-backend/internal/app/store"
	"github.com/neonmart/storefront-backend/internal/bus"
	"github.com/neonmart/storefront-backend/pkg/logger"
	"github.com/neonmart/storefront-backend/pkg/vendure"
)

var (
	// ErrMutationInFlight is returned when a second mutation targets a line
	// whose previous mutation has not completed yet.
	ErrMutationInFlight = errors.New("a mutation for this line is already in flight")
)

// AddItemRequest carries everything needed to add a product to the cart.
// UnitPriceMinor is the tax-inclusive wire price in minor units; the service
// converts it when the line lands in the local cart. CurrencyCode labels the
// price so a fallback line keeps its original currency.
type AddItemRequest struct {
	ProductID      string
	VariantID      string
	Name           string
	UnitPriceMinor int64
	CurrencyCode   string
	ImageURL       string
}

// CartService reconciles the two cart sources behind one surface-facing API.
// The commerce backend's active order is authoritative whenever one exists
// and is reachable; otherwise the locally persisted cart takes over. The
// choice is re-evaluated on every call, never remembered.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) model.DisplayCart
	AddItem(ctx context.Context, sessionID string, req AddItemRequest) (model.DisplayCart, error)
	RemoveItem(ctx context.Context, sessionID, lineID string) (model.DisplayCart, error)
	UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (model.DisplayCart, error)
	Clear(ctx context.Context, sessionID string) model.DisplayCart
	CompleteCheckout(ctx context.Context, sessionID string) model.DisplayCart
}

type cartService struct {
	store    *store.CartStore
	remote   *remote.Accessor
	eventBus *bus.CartBus
	guard    inflightGuard
}

// NewCartService creates the reconciling cart service
func NewCartService(cartStore *store.CartStore, accessor *remote.Accessor, eventBus *bus.CartBus) CartService {
	return &cartService{
		store:    cartStore,
		remote:   accessor,
		eventBus: eventBus,
		guard:    inflightGuard{keys: make(map[string]struct{})},
	}
}

// resolve fetches the remote order and decides which source is live. useLocal
// is true when the backend has no active order or could not be reached.
func (s *cartService) resolve(ctx context.Context, sessionID string) (order *vendure.Order, useLocal bool) {
	order, err := s.remote.ActiveOrder(ctx, sessionID)
	if err != nil {
		logger.Warn("Falling back to local cart, backend unreachable", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, true
	}
	return order, order == nil
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) model.DisplayCart {
	order, useLocal := s.resolve(ctx, sessionID)
	if useLocal {
		return model.DisplayFromLocal(s.store.Get(ctx, sessionID))
	}
	return model.DisplayFromRemote(order)
}

func (s *cartService) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (model.DisplayCart, error) {
	if err := s.guard.acquire(sessionID, addKey(req)); err != nil {
		return model.DisplayCart{}, err
	}
	defer s.guard.release(sessionID, addKey(req))

	_, useLocal := s.resolve(ctx, sessionID)
	if useLocal {
		return model.DisplayFromLocal(s.store.AddItem(ctx, sessionID, localAddInput(req))), nil
	}

	order, err := s.remote.AddItem(ctx, sessionID, req.VariantID, 1)
	if err != nil {
		if vendure.IsTransport(err) {
			// Silent failover: the user keeps a working cart and the local
			// copy records the same change.
			logger.Warn("Remote add failed, applying to local cart", map[string]interface{}{
				"session_id": sessionID,
				"product_id": req.ProductID,
				"error":      err.Error(),
			})
			return model.DisplayFromLocal(s.store.AddItem(ctx, sessionID, localAddInput(req))), nil
		}
		// Business refusals (out of stock, limits) surface unchanged
		return model.DisplayCart{}, err
	}

	s.notify(ctx, sessionID)
	return model.DisplayFromRemote(order), nil
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID, lineID string) (model.DisplayCart, error) {
	if err := s.guard.acquire(sessionID, lineID); err != nil {
		return model.DisplayCart{}, err
	}
	defer s.guard.release(sessionID, lineID)

	_, useLocal := s.resolve(ctx, sessionID)
	if useLocal {
		return model.DisplayFromLocal(s.store.RemoveItem(ctx, sessionID, lineID)), nil
	}

	order, err := s.remote.RemoveLine(ctx, sessionID, lineID)
	if err != nil {
		if vendure.IsTransport(err) {
			logger.Warn("Remote remove failed, applying to local cart", map[string]interface{}{
				"session_id": sessionID,
				"line_id":    lineID,
				"error":      err.Error(),
			})
			return model.DisplayFromLocal(s.store.RemoveItem(ctx, sessionID, lineID)), nil
		}
		return model.DisplayCart{}, err
	}

	s.notify(ctx, sessionID)
	return model.DisplayFromRemote(order), nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (model.DisplayCart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, lineID)
	}

	if err := s.guard.acquire(sessionID, lineID); err != nil {
		return model.DisplayCart{}, err
	}
	defer s.guard.release(sessionID, lineID)

	_, useLocal := s.resolve(ctx, sessionID)
	if useLocal {
		return model.DisplayFromLocal(s.store.UpdateQuantity(ctx, sessionID, lineID, quantity)), nil
	}

	order, err := s.remote.AdjustLine(ctx, sessionID, lineID, quantity)
	if err != nil {
		if vendure.IsTransport(err) {
			logger.Warn("Remote quantity update failed, applying to local cart", map[string]interface{}{
				"session_id": sessionID,
				"line_id":    lineID,
				"quantity":   quantity,
				"error":      err.Error(),
			})
			return model.DisplayFromLocal(s.store.UpdateQuantity(ctx, sessionID, lineID, quantity)), nil
		}
		return model.DisplayCart{}, err
	}

	s.notify(ctx, sessionID)
	return model.DisplayFromRemote(order), nil
}

// Clear empties the local cart and drops the cached remote snapshot. The
// backend order itself is left alone; it only goes away through checkout.
func (s *cartService) Clear(ctx context.Context, sessionID string) model.DisplayCart {
	s.remote.Invalidate(sessionID)
	return model.DisplayFromLocal(s.store.Clear(ctx, sessionID))
}

// CompleteCheckout ends the shopping session: the backend token is dropped so
// the placed order stops being "active", and the local cart is emptied.
func (s *cartService) CompleteCheckout(ctx context.Context, sessionID string) model.DisplayCart {
	s.remote.Forget(ctx, sessionID)
	return model.DisplayFromLocal(s.store.Clear(ctx, sessionID))
}

// notify wakes this session's subscribers after a successful remote mutation.
// A remote write leaves the local snapshot untouched, so the snapshot rides
// along as an advisory payload; surface observers re-derive the reconciled
// cart rather than reading Event.Cart.
func (s *cartService) notify(ctx context.Context, sessionID string) {
	s.eventBus.Publish(ctx, sessionID, s.store.Get(ctx, sessionID))
}

func localAddInput(req AddItemRequest) store.AddItemInput {
	return store.AddItemInput{
		ProductID:    req.ProductID,
		VariantID:    req.VariantID,
		Name:         req.Name,
		UnitPrice:    vendure.FromMinorUnits(req.UnitPriceMinor),
		CurrencyCode: req.CurrencyCode,
		ImageURL:     req.ImageURL,
	}
}

// addKey identifies an add operation for mutual exclusion. Adds dedupe on the
// (product, variant) pair, so that pair is the contended resource.
func addKey(req AddItemRequest) string {
	return "add:" + req.ProductID + ":" + req.VariantID
}

// inflightGuard rejects overlapping mutations of the same line. Without it, a
// slow first mutation could overwrite the result of a faster second one.
type inflightGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (g *inflightGuard) acquire(sessionID, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	full := sessionID + "|" + key
	if _, held := g.keys[full]; held {
		return ErrMutationInFlight
	}
	g.keys[full] = struct{}{}
	return nil
}

func (g *inflightGuard) release(sessionID, key string) {
	g.mu.Lock()
	delete(g.keys, sessionID+"|"+key)
	g.mu.Unlock()
}
