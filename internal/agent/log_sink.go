package agent

import (
	"context"

	"github.com/autopeer-io/simetry/pkg/generichttp"
	"github.com/autopeer-io/simetry/pkg/log"
)

var (
	_ Sink            = (*LogSink)(nil)
	_ SessionObserver = (*LogSink)(nil)
)

// LogSink writes one debug line per snapshot.
type LogSink struct {
	log log.Logger
}

func NewLogSink(logger log.Logger) *LogSink {
	return &LogSink{log: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Forward(_ context.Context, session string, state *generichttp.SimState) error {
	kv := []any{
		"session", session,
		"ignition", state.IsIgnitionOn(),
		"starter", state.IsStarterOn(),
		"flags", state.Flags().Active(),
	}
	if bt, ok := state.BasicTelemetry(); ok {
		kv = append(kv, "gear", bt.Gear, "speed", bt.Speed, "rpm", bt.EngineRotationSpeed, "pitLane", bt.InPitLane)
	}
	if sp, ok := state.ShiftPoint(); ok {
		kv = append(kv, "shiftPoint", sp)
	}
	s.log.Debug("Telemetry frame", kv...)
	return nil
}

func (s *LogSink) SessionStarted(_ context.Context, session, endpoint string) {
	s.log.Info("Telemetry session started", "session", session, "endpoint", endpoint)
}

func (s *LogSink) SessionEnded(_ context.Context, session string) {
	s.log.Info("Telemetry session ended", "session", session)
}
