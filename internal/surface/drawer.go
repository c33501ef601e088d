package surface

import (
	"sync"

	"github.com/neonmart/storefront-backend/internal/app/model"
	"github.com/neonmart/storefront-backend/pkg/logger"
)

// DrawerState is the slide-out cart panel's visibility
type DrawerState string

const (
	DrawerClosed DrawerState = "closed"
	DrawerOpen   DrawerState = "open"
)

// CloseReason records what dismissed the drawer
type CloseReason string

const (
	CloseOutsideClick CloseReason = "outside_click"
	CloseEscape       CloseReason = "escape"
	CloseCheckout     CloseReason = "checkout_navigation"
	CloseExplicit     CloseReason = "explicit"
)

// DrawerView is the rendered drawer payload
type DrawerView struct {
	State        DrawerState      `json:"state"`
	Empty        bool             `json:"empty"`
	Items        []model.CartLine `json:"items"`
	TotalItems   int              `json:"totalItems"`
	TotalPrice   float64          `json:"totalPrice"`
	CurrencyCode string           `json:"currencyCode"`
	Source       model.CartSource `json:"source"`
}

// DrawerRegistry tracks the open/closed drawer per session. The drawer has
// exactly two states; opening an open drawer and closing a closed one are
// no-ops.
type DrawerRegistry struct {
	mu     sync.Mutex
	states map[string]DrawerState
}

// NewDrawerRegistry creates an empty registry; every drawer starts closed
func NewDrawerRegistry() *DrawerRegistry {
	return &DrawerRegistry{states: make(map[string]DrawerState)}
}

// State returns the session's drawer state
func (r *DrawerRegistry) State(sessionID string) DrawerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[sessionID]; ok {
		return state
	}
	return DrawerClosed
}

// Open shows the drawer. Returns true if the state changed.
func (r *DrawerRegistry) Open(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[sessionID] == DrawerOpen {
		return false
	}
	r.states[sessionID] = DrawerOpen
	return true
}

// Close dismisses the drawer, recording why. Returns true if the state
// changed.
func (r *DrawerRegistry) Close(sessionID string, reason CloseReason) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[sessionID] != DrawerOpen {
		return false
	}
	r.states[sessionID] = DrawerClosed
	logger.Debug("Cart drawer closed", map[string]interface{}{
		"session_id": sessionID,
		"reason":     string(reason),
	})
	return true
}

// Toggle flips the drawer and returns the new state
func (r *DrawerRegistry) Toggle(sessionID string) DrawerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[sessionID] == DrawerOpen {
		r.states[sessionID] = DrawerClosed
		return DrawerClosed
	}
	r.states[sessionID] = DrawerOpen
	return DrawerOpen
}

// Forget drops the session's drawer state (session end)
func (r *DrawerRegistry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.states, sessionID)
	r.mu.Unlock()
}

// DrawerFrom renders the drawer for the session's current cart
func (r *DrawerRegistry) DrawerFrom(sessionID string, cart model.DisplayCart) DrawerView {
	return DrawerView{
		State:        r.State(sessionID),
		Empty:        len(cart.Items) == 0,
		Items:        cart.Items,
		TotalItems:   cart.TotalItems,
		TotalPrice:   cart.TotalPrice,
		CurrencyCode: cart.CurrencyCode,
		Source:       cart.Source,
	}
}
