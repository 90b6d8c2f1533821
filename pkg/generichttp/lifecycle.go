package generichttp

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/looplab/fsm"

	"github.com/autopeer-io/simetry/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/simetry/internal/pkg/util/fsm"
)

const (
	// StateConnected means the client is bound to a live session.
	StateConnected = "connected"
	// StateEnded is terminal: the session is over for this client.
	StateEnded = "ended"

	// EventEnd moves a connected client to StateEnded.
	EventEnd = "end"
)

// Reasons a session ends.
const (
	ReasonTimeout   = "timeout"
	ReasonTransport = "transport"
	ReasonDecode    = "decode"
	ReasonMismatch  = "mismatch"
	ReasonClosed    = "closed"
)

type lifecycle struct {
	*fsm.FSM

	session string
	log     logr.Logger
}

func newLifecycle(session string, logger logr.Logger) *lifecycle {
	l := &lifecycle{session: session, log: logger}

	events := fsm.Events{
		{Name: EventEnd, Src: []string{StateConnected}, Dst: StateEnded},
	}

	callbacks := fsm.Callbacks{
		"enter_" + StateEnded: fsmutil.WrapEvent(l.actionEnterEnded),
	}

	l.FSM = fsm.NewFSM(StateConnected, events, callbacks)
	metrics.SessionConnected.Inc()
	return l
}

// end fires EventEnd. Args: reason string, optional cause error.
// Ending an already ended session is a no-op.
func (l *lifecycle) end(ctx context.Context, reason string, cause error) {
	if l.Is(StateEnded) {
		return
	}
	if err := l.Event(ctx, EventEnd, reason, cause); err != nil {
		l.log.V(1).Info("Session end transition rejected", "session", l.session, "error", err.Error())
	}
}

func (l *lifecycle) actionEnterEnded(ctx context.Context, e *fsm.Event) error {
	metrics.SessionConnected.Dec()

	kv := []any{"session", l.session, "reason", fsmutil.StringArg(e, 0)}
	if cause := fsmutil.ErrorArg(e, 1); cause != nil {
		kv = append(kv, "cause", cause.Error())
	}
	l.log.Info("Telemetry session ended", kv...)
	return nil
}
