package vendure

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork is returned when the request never produced a usable response
	ErrNetwork = errors.New("network error")

	// ErrBadStatus is returned on a non-2xx response from the shop API
	ErrBadStatus = errors.New("unexpected status code")

	// ErrMalformedResponse is returned when the response body cannot be decoded
	ErrMalformedResponse = errors.New("malformed response")

	// ErrGraphQL is returned when the shop API reports top-level GraphQL errors
	ErrGraphQL = errors.New("graphql error")
)

// APIError is a structured business error reported by the shop API inside a
// mutation result (ErrorResult union), e.g. insufficient stock. It is distinct
// from transport failures: the remote cart is intact, the mutation was simply
// rejected.
type APIError struct {
	ErrorCode string
	Message   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shop api error %s: %s", e.ErrorCode, e.Message)
}

// IsTransport reports whether err is a transport-class failure (network,
// status, decoding, GraphQL-level) as opposed to a business rejection.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	return !errors.As(err, &apiErr)
}
