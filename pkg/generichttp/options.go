package generichttp

import (
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

const (
	// DefaultAddress is where a generic HTTP telemetry server listens by default.
	DefaultAddress = "0.0.0.0:25055"

	// DefaultURI is where a client looks for the telemetry endpoint by default.
	DefaultURI = "http://localhost:25055/"

	// PollTimeout bounds a single state request.
	PollTimeout = 2 * time.Second

	maxDocumentSize = 1 << 20
)

// Option configures a Client.
type Option func(*config)

type config struct {
	httpClient  *http.Client
	logger      logr.Logger
	clock       clock.Clock
	pollTimeout time.Duration
}

func newConfig(opts []Option) *config {
	cfg := &config{
		httpClient:  &http.Client{},
		logger:      logr.Discard(),
		clock:       clock.RealClock{},
		pollTimeout: PollTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithHTTPClient makes the client issue its requests through hc.
// Request deadlines are applied per request; hc.Timeout should be left unset.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for connection and session events.
func WithLogger(logger logr.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClock replaces the clock driving retry delays.
func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithPollTimeout overrides PollTimeout.
func WithPollTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollTimeout = d
		}
	}
}
