package errors

// Error code constants returned to clients.
// Format: CATEGORY_SPECIFIC_DETAIL — the frontend maps these to messages.

const (
	// ==================== Session (SESSION_) ====================
	SessionMissing = "SESSION_MISSING" // no session cookie
	SessionInvalid = "SESSION_INVALID" // unparsable or expired session token

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // malformed request body
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // malformed identifier
	ValidationRequired     = "VALIDATION_REQUIRED"      // missing required field
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE" // value out of range

	// ==================== Cart (CART_) ====================
	CartLineNotFound     = "CART_LINE_NOT_FOUND"     // unknown order line
	CartMutationInFlight = "CART_MUTATION_IN_FLIGHT" // same line already being mutated
	CartRejected         = "CART_REJECTED"           // commerce backend refused the change

	// ==================== Commerce backend (REMOTE_) ====================
	RemoteUnavailable = "REMOTE_UNAVAILABLE" // backend unreachable or misbehaving
	RemoteOrderError  = "REMOTE_ORDER_ERROR" // backend returned a structured order error

	// ==================== Catalog (CATALOG_) ====================
	CatalogProductNotFound = "CATALOG_PRODUCT_NOT_FOUND" // unknown product
	CatalogUnavailable     = "CATALOG_UNAVAILABLE"       // catalog source unreachable

	// ==================== Checkout (CHECKOUT_) ====================
	CheckoutEmptyCart = "CHECKOUT_EMPTY_CART" // nothing to check out

	// ==================== Generic ====================
	ResourceNotFound    = "RESOURCE_NOT_FOUND"
	InternalServerError = "INTERNAL_SERVER_ERROR"
)
