package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/simetry/internal/pkg/metrics"
	"github.com/autopeer-io/simetry/internal/pkg/server"
	"github.com/autopeer-io/simetry/pkg/generichttp"
	"github.com/autopeer-io/simetry/pkg/log"
	"github.com/autopeer-io/simetry/pkg/mqtt"
	"github.com/autopeer-io/simetry/pkg/options"
	"github.com/autopeer-io/simetry/pkg/simetry"
)

// statusTimeout bounds status messages published while shutting down.
const statusTimeout = 5 * time.Second

// Agent follows the sessions of one telemetry endpoint and forwards their snapshots.
type Agent struct {
	id     string
	source *options.SourceOptions
	sinks  []Sink
	clock  clock.Clock
	log    log.Logger

	// optional
	probe      *server.HTTPServer
	mqttClient mqtt.Client
	mqttSink   *MQTTSink

	connected atomic.Bool
	sessions  atomic.Int64
}

// NewAgent creates an agent polling the endpoint described by source.
func NewAgent(id string, source *options.SourceOptions, sinks ...Sink) *Agent {
	return &Agent{
		id:     id,
		source: source,
		sinks:  sinks,
		clock:  clock.RealClock{},
		log:    log.WithName("agent"),
	}
}

// Connected reports whether the agent is currently bound to a session.
func (a *Agent) Connected() bool {
	return a.connected.Load()
}

// Sessions returns how many sessions the agent has followed so far.
func (a *Agent) Sessions() int64 {
	return a.sessions.Load()
}

// Run follows sessions until ctx is done, or until the first session ends
// when reconnecting is disabled.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Info("Starting simetry-agent", "agent", a.id, "endpoint", a.source.Endpoint, "reconnect", a.source.Reconnect)

	if a.mqttClient != nil {
		if err := a.mqttClient.Start(ctx); err != nil {
			return err
		}
		defer a.shutdownMQTT(ctx)
		go a.announce(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mgr := server.NewManager(server.ServerFunc(func(ctx context.Context) error {
		defer cancel()
		return a.watch(ctx)
	}))
	if a.probe != nil {
		mgr.Add(a.probe)
	}

	err := mgr.Start(ctx)
	a.log.Info("Agent shutting down...", "sessions", a.Sessions())
	return err
}

func (a *Agent) watch(ctx context.Context) error {
	opts := []generichttp.Option{
		generichttp.WithLogger(a.log.Logr()),
		generichttp.WithClock(a.clock),
		generichttp.WithPollTimeout(a.source.PollTimeout),
	}

	for {
		c, err := generichttp.Connect(ctx, a.source.Endpoint, a.source.RetryDelay, opts...)
		if err != nil {
			// Connect only fails once ctx is done.
			return nil
		}

		a.sessions.Add(1)
		a.connected.Store(true)
		err = a.follow(ctx, c)
		a.connected.Store(false)
		c.Close()

		if err != nil || ctx.Err() != nil || !a.source.Reconnect {
			return err
		}
		a.log.Info("Waiting for the next session", "endpoint", c.Endpoint())
	}
}

// follow polls c until its session ends. It returns nil when the session
// ended or ctx was cancelled.
func (a *Agent) follow(ctx context.Context, c *generichttp.Client) error {
	session := c.Name()
	for _, s := range a.sinks {
		if o, ok := s.(SessionObserver); ok {
			o.SessionStarted(ctx, session, c.Endpoint())
		}
	}
	defer func() {
		endCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusTimeout)
		defer cancel()
		for _, s := range a.sinks {
			if o, ok := s.(SessionObserver); ok {
				o.SessionEnded(endCtx, session)
			}
		}
	}()

	for {
		state, err := c.NextSnapshot(ctx)
		switch {
		case errors.Is(err, simetry.ErrSessionEnded):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		a.forward(ctx, session, state)

		if a.source.PollInterval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-a.clock.After(a.source.PollInterval):
			}
		}
	}
}

func (a *Agent) forward(ctx context.Context, session string, state *generichttp.SimState) {
	for _, s := range a.sinks {
		if err := s.Forward(ctx, session, state); err != nil {
			metrics.FramesForwardedTotal.WithLabelValues(s.Name(), "failed").Inc()
			a.log.Warn("Failed to forward snapshot", "sink", s.Name(), "session", session, "error", err.Error())
			continue
		}
		metrics.FramesForwardedTotal.WithLabelValues(s.Name(), "success").Inc()
	}
}

// announce publishes the idle status once the broker connection is up.
func (a *Agent) announce(ctx context.Context) {
	if err := a.mqttClient.AwaitConnection(ctx); err != nil {
		return
	}
	if !a.mqttSink.PublishIdle(ctx) {
		a.log.Debug("Session already announced, skipping idle status")
	}
}

func (a *Agent) shutdownMQTT(ctx context.Context) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusTimeout)
	defer cancel()

	a.mqttSink.PublishStatus(stopCtx, AgentStatus{Reason: ReasonShutdown})
	a.mqttClient.Disconnect(stopCtx)
}
