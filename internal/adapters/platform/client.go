// Package platform talks to the learning platform's REST API: a
// retrying GET client plus typed fetchers for assessments, instances,
// access rules, question sets, grading logs, and the gradebook.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/courseops/regrade/pkg/logger"
	"github.com/courseops/regrade/pkg/metrics"
	"github.com/google/uuid"
)

// Default client configuration constants.
const (
	apiBasePath       = "/pl/api/v1"
	authTokenHeader   = "Private-Token"
	defaultRetryMax   = 5
	defaultRetryDelay = 10 * time.Second
	defaultTimeout    = 60 * time.Second
)

// Client performs authenticated GET requests against the platform API.
// The only transient status is 502 Bad Gateway: it is retried with a
// constant delay up to the retry budget. Every other non-200 status fails
// immediately.
type Client struct {
	server     string // domain + API base path
	token      string
	httpClient *http.Client
	retryMax   int
	retryDelay time.Duration
	logger     logger.Logger
}

// NewClient creates a client for the given platform domain and API token.
func NewClient(domain, token string, opts ...Option) *Client {
	c := &Client{
		server:     strings.TrimRight(domain, "/") + apiBasePath,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryMax:   defaultRetryMax,
		retryDelay: defaultRetryDelay,
		logger:     logger.Get().Named("platform"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get fetches endpoint and decodes the JSON response into out. The
// request is retried only on 502; the fixed inter-attempt delay honors
// ctx cancellation.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	url := c.server + endpoint
	requestID := uuid.NewString()

	c.logger.Info(ctx, "start request",
		logger.String("endpoint", endpoint),
		logger.String("requestID", requestID),
	)

	start := time.Now()
	body, err := c.getWithRetry(ctx, url, endpoint, requestID)
	duration := time.Since(start)

	metrics.RecordAPIRequestDuration(float64(duration.Milliseconds()))
	if err != nil {
		metrics.RecordAPIRequestError()
		return err
	}

	metrics.RecordAPIRequest()
	metrics.RecordAPIResponseBytes(len(body))
	c.logger.Info(ctx, "request completed",
		logger.String("endpoint", endpoint),
		logger.String("requestID", requestID),
		logger.Int("bytes", len(body)),
		logger.String("duration", duration.Round(time.Millisecond).String()),
	)

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

// getWithRetry performs the GET loop. It returns the response body of the
// first 200, or an error classifying the failure.
func (c *Client) getWithRetry(ctx context.Context, url, endpoint, requestID string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		body, status, err := c.doGet(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", endpoint, err)
		}

		switch {
		case status == http.StatusOK:
			return body, nil

		case status == http.StatusBadGateway:
			metrics.RecordAPIRetry()
			if attempt >= c.retryMax {
				c.logger.Error(ctx, "retry budget exhausted",
					logger.String("endpoint", endpoint),
					logger.String("requestID", requestID),
					logger.Int("attempts", attempt),
				)
				return nil, fmt.Errorf("%w: %d attempts on 502 for %s", ErrRetryExhausted, attempt, endpoint)
			}
			c.logger.Warn(ctx, "bad gateway, retrying",
				logger.String("endpoint", endpoint),
				logger.String("requestID", requestID),
				logger.Int("attempt", attempt),
				logger.String("delay", c.retryDelay.String()),
			)
			if err := sleep(ctx, c.retryDelay); err != nil {
				return nil, fmt.Errorf("request %s: %w", endpoint, err)
			}

		default:
			c.logger.Error(ctx, "unexpected status",
				logger.String("endpoint", endpoint),
				logger.String("requestID", requestID),
				logger.Int("status", status),
			)
			return nil, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, status, endpoint)
		}
	}
}

// doGet issues one GET attempt and drains the body.
func (c *Client) doGet(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set(authTokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
