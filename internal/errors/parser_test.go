package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/neonmart/storefront-backend/pkg/vendure"
	"github.com/stretchr/testify/assert"
)

func TestParseRemoteError_OrderError(t *testing.T) {
	err := &vendure.APIError{ErrorCode: "INSUFFICIENT_STOCK_ERROR", Message: "Only 2 items in stock"}

	info := ParseRemoteError(fmt.Errorf("add item: %w", err))

	assert.Equal(t, http.StatusUnprocessableEntity, info.Status)
	assert.Equal(t, "CART_INSUFFICIENT_STOCK", info.Code)
	assert.Equal(t, "Only 2 items in stock", info.Message)
}

func TestParseRemoteError_UnknownOrderCode(t *testing.T) {
	info := ParseRemoteError(&vendure.APIError{Message: "rejected"})

	assert.Equal(t, http.StatusUnprocessableEntity, info.Status)
	assert.Equal(t, RemoteOrderError, info.Code)
}

func TestParseRemoteError_TransportFailure(t *testing.T) {
	info := ParseRemoteError(fmt.Errorf("%w: connection refused", vendure.ErrNetwork))

	assert.Equal(t, http.StatusBadGateway, info.Status)
	assert.Equal(t, RemoteUnavailable, info.Code)
	// Transport details must not leak into the client message
	assert.NotContains(t, info.Message, "connection refused")
}

func TestParseRemoteError_Nil(t *testing.T) {
	info := ParseRemoteError(nil)

	assert.Equal(t, http.StatusInternalServerError, info.Status)
	assert.Equal(t, InternalServerError, info.Code)
}
