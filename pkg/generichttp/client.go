package generichttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/simetry/internal/pkg/metrics"
	"github.com/autopeer-io/simetry/pkg/simetry"
)

var _ simetry.Source = (*Client)(nil)

// Client polls one generic HTTP telemetry endpoint on behalf of one session.
// It is not safe for concurrent use: polls must not overlap.
type Client struct {
	name        string
	uri         *url.URL
	httpClient  *http.Client
	pollTimeout time.Duration
	clock       clock.Clock
	log         logr.Logger
	lifecycle   *lifecycle
}

// Connect calls TryConnect until it succeeds, waiting retryDelay between
// attempts. It only returns an error when ctx is done.
func Connect(ctx context.Context, endpoint string, retryDelay time.Duration, opts ...Option) (*Client, error) {
	cfg := newConfig(opts)

	for attempt := 1; ; attempt++ {
		c, err := tryConnect(ctx, endpoint, cfg)
		if err == nil {
			return c, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		cfg.logger.V(1).Info("Telemetry endpoint not available, retrying",
			"endpoint", endpoint, "attempt", attempt, "retryDelay", retryDelay.String(), "error", err.Error())

		timer := cfg.clock.NewTimer(retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C():
		}
	}
}

// TryConnect performs exactly one state request against endpoint and binds the
// returned client to the session named in the response.
func TryConnect(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	return tryConnect(ctx, endpoint, newConfig(opts))
}

func tryConnect(ctx context.Context, endpoint string, cfg *config) (*Client, error) {
	uri, err := parseEndpoint(endpoint)
	if err != nil {
		metrics.ConnectAttemptsTotal.WithLabelValues("invalid_address").Inc()
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.pollTimeout)
	defer cancel()

	state, err := query(reqCtx, cfg.httpClient, uri)
	if err != nil {
		result := "transport"
		if errors.Is(err, ErrDecode) {
			result = "decode"
		}
		metrics.ConnectAttemptsTotal.WithLabelValues(result).Inc()
		return nil, err
	}
	metrics.ConnectAttemptsTotal.WithLabelValues("success").Inc()

	logger := cfg.logger.WithValues("endpoint", uri.String())
	logger.Info("Connected to telemetry endpoint", "session", state.Name)

	return &Client{
		name:        state.Name,
		uri:         uri,
		httpClient:  cfg.httpClient,
		pollTimeout: cfg.pollTimeout,
		clock:       cfg.clock,
		log:         logger,
		lifecycle:   newLifecycle(state.Name, logger),
	}, nil
}

// Name returns the session identity captured at connect time. It never changes.
func (c *Client) Name() string {
	return c.name
}

// Endpoint returns the URI being polled.
func (c *Client) Endpoint() string {
	return c.uri.String()
}

// State returns StateConnected or StateEnded.
func (c *Client) State() string {
	return c.lifecycle.Current()
}

// NextSnapshot polls the endpoint once.
//
// Any failure to obtain a decodable payload within the poll timeout, and any
// payload naming a different session, ends the session: the call returns
// simetry.ErrSessionEnded and so does every later call. If ctx itself is done
// the context error is returned and the session is left as it was.
func (c *Client) NextSnapshot(ctx context.Context) (*SimState, error) {
	if c.lifecycle.Is(StateEnded) {
		return nil, simetry.ErrSessionEnded
	}

	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	start := c.clock.Now()
	state, err := query(pollCtx, c.httpClient, c.uri)
	metrics.PollLatency.Observe(c.clock.Since(start).Seconds())

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		reason := ReasonTransport
		switch {
		case errors.Is(pollCtx.Err(), context.DeadlineExceeded):
			reason = ReasonTimeout
		case errors.Is(err, ErrDecode):
			reason = ReasonDecode
		}
		metrics.PollsTotal.WithLabelValues(reason).Inc()
		c.lifecycle.end(ctx, reason, err)
		return nil, simetry.ErrSessionEnded
	}

	if state.Name != c.name {
		metrics.PollsTotal.WithLabelValues(ReasonMismatch).Inc()
		c.log.V(1).Info("Endpoint reports a different session", "session", c.name, "observed", state.Name)
		c.lifecycle.end(ctx, ReasonMismatch, nil)
		return nil, simetry.ErrSessionEnded
	}

	metrics.PollsTotal.WithLabelValues("ok").Inc()
	return state, nil
}

// NextMoment implements simetry.Source.
func (c *Client) NextMoment(ctx context.Context) (simetry.Moment, error) {
	state, err := c.NextSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Query issues a single state request without any session bookkeeping.
// Errors wrap ErrTransport or ErrDecode.
func (c *Client) Query(ctx context.Context) (*SimState, error) {
	return query(ctx, c.httpClient, c.uri)
}

// Close ends the session, if still live, and drops idle connections.
func (c *Client) Close() {
	c.lifecycle.end(context.Background(), ReasonClosed, nil)
	c.httpClient.CloseIdleConnections()
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	uri, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if uri.Scheme != "http" {
		return nil, fmt.Errorf("%w: %q: scheme must be http", ErrInvalidAddress, endpoint)
	}
	if uri.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidAddress, endpoint)
	}
	return uri, nil
}

func query(ctx context.Context, hc *http.Client, uri *url.URL) (*SimState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: GET %s: %d %s", ErrTransport, uri, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrDecode, maxDocumentSize)
	}
	return DecodeState(body)
}
