package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/simetry/pkg/generichttp"
)

var _ IOptions = (*SourceOptions)(nil)

// SourceOptions describes the telemetry endpoint to poll and how.
type SourceOptions struct {
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	RetryDelay   time.Duration `json:"retry-delay" mapstructure:"retry-delay"`
	PollInterval time.Duration `json:"poll-interval" mapstructure:"poll-interval"`
	PollTimeout  time.Duration `json:"poll-timeout" mapstructure:"poll-timeout"`

	// Reconnect makes the agent wait for the next session once one ends.
	Reconnect bool `json:"reconnect" mapstructure:"reconnect"`
}

// NewSourceOptions creates a SourceOptions with default values.
func NewSourceOptions() *SourceOptions {
	return &SourceOptions{
		Endpoint:     generichttp.DefaultURI,
		RetryDelay:   time.Second,
		PollInterval: 100 * time.Millisecond,
		PollTimeout:  generichttp.PollTimeout,
		Reconnect:    true,
	}
}

// Validate checks the source options.
func (o *SourceOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Endpoint == "" {
		errors = append(errors, fmt.Errorf("--source.endpoint is required"))
	}
	if o.RetryDelay <= 0 {
		errors = append(errors, fmt.Errorf("--source.retry-delay must be positive, got %s", o.RetryDelay))
	}
	if o.PollInterval < 0 {
		errors = append(errors, fmt.Errorf("--source.poll-interval must not be negative, got %s", o.PollInterval))
	}
	if o.PollTimeout <= 0 {
		errors = append(errors, fmt.Errorf("--source.poll-timeout must be positive, got %s", o.PollTimeout))
	}

	return errors
}

// AddFlags adds flags for SourceOptions to the specified FlagSet.
func (o *SourceOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "source.endpoint", o.Endpoint, "URI of the generic HTTP telemetry endpoint.")
	fs.DurationVar(&o.RetryDelay, "source.retry-delay", o.RetryDelay, "Delay between connection attempts while the endpoint is unavailable.")
	fs.DurationVar(&o.PollInterval, "source.poll-interval", o.PollInterval, "Delay between two telemetry polls.")
	fs.DurationVar(&o.PollTimeout, "source.poll-timeout", o.PollTimeout, "Deadline of a single telemetry poll; a poll exceeding it ends the session.")
	fs.BoolVar(&o.Reconnect, "source.reconnect", o.Reconnect, "Wait for the next session after the current one ends.")
}
