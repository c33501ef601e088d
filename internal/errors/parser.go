package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/neonmart/storefront-backend/pkg/vendure"
)

// ErrorInfo is the parsed, client-safe form of an internal error
type ErrorInfo struct {
	Status  int    // HTTP status code
	Code    string // error code (see codes.go)
	Message string // user-facing message
}

// ParseRemoteError maps a commerce-backend failure to a client response.
// Structured order errors keep the backend's code and message; everything
// else collapses to a generic unavailability so transport details never
// leak to clients.
func ParseRemoteError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "Something went wrong. Please try again",
		}
	}

	var apiErr *vendure.APIError
	if errors.As(err, &apiErr) {
		return ErrorInfo{
			Status:  http.StatusUnprocessableEntity,
			Code:    remoteCode(apiErr.ErrorCode),
			Message: apiErr.Message,
		}
	}

	return ErrorInfo{
		Status:  http.StatusBadGateway,
		Code:    RemoteUnavailable,
		Message: "The store is temporarily unavailable. Please try again",
	}
}

// remoteCode normalizes backend error codes into this API's namespace.
// "INSUFFICIENT_STOCK_ERROR" → "CART_INSUFFICIENT_STOCK".
func remoteCode(backendCode string) string {
	if backendCode == "" {
		return RemoteOrderError
	}
	code := strings.TrimSuffix(backendCode, "_ERROR")
	return "CART_" + code
}
