package vendure

import (
	"errors"
	"time"
)

// Config holds the shop API client configuration
type Config struct {
	// APIURL is the GraphQL shop API endpoint
	APIURL string

	// Timeout bounds every request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout is applied when Config.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Validate checks the configuration
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("APIURL is required")
	}
	return nil
}
