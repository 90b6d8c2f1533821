package agent

import (
	"context"

	"github.com/autopeer-io/simetry/pkg/generichttp"
)

// Sink receives every snapshot the agent polls.
type Sink interface {
	Name() string
	Forward(ctx context.Context, session string, state *generichttp.SimState) error
}

// SessionObserver is implemented by sinks that care about session boundaries.
type SessionObserver interface {
	SessionStarted(ctx context.Context, session, endpoint string)
	SessionEnded(ctx context.Context, session string)
}
