package platform

import (
	"net/http"
	"time"

	"github.com/courseops/regrade/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithRetryMax sets the maximum number of attempts on 502.
func WithRetryMax(max int) Option {
	return func(c *Client) {
		if max > 0 {
			c.retryMax = max
		}
	}
}

// WithRetryDelay sets the constant inter-attempt delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
