package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/simetry/internal/pkg/metrics"
	"github.com/autopeer-io/simetry/pkg/generichttp"
	"github.com/autopeer-io/simetry/pkg/options"
)

type recordingSink struct {
	mu      sync.Mutex
	frames  []string
	started []string
	ended   []string
	onFrame func(session string)
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Forward(_ context.Context, session string, _ *generichttp.SimState) error {
	s.mu.Lock()
	s.frames = append(s.frames, session)
	s.mu.Unlock()
	if s.onFrame != nil {
		s.onFrame(session)
	}
	return s.err
}

func (s *recordingSink) SessionStarted(_ context.Context, session, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, session)
}

func (s *recordingSink) SessionEnded(_ context.Context, session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = append(s.ended, session)
}

// scriptedEndpoint answers the n-th request (1-based) with script(n).
func scriptedEndpoint(t *testing.T, script func(n int64) (int, string)) *httptest.Server {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code, body := script(calls.Add(1))
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSource(endpoint string, reconnect bool) *options.SourceOptions {
	return &options.SourceOptions{
		Endpoint:     endpoint + "/",
		RetryDelay:   5 * time.Millisecond,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
		Reconnect:    reconnect,
	}
}

func TestAgentStopsAfterSessionWithoutReconnect(t *testing.T) {
	srv := scriptedEndpoint(t, func(n int64) (int, string) {
		if n <= 4 {
			return http.StatusOK, `{"name":"RaceA","ignition_on":true}`
		}
		return http.StatusServiceUnavailable, "gone"
	})

	sink := &recordingSink{}
	a := NewAgent("agent-1", testSource(srv.URL, false), sink)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))

	assert.Equal(t, []string{"RaceA", "RaceA", "RaceA"}, sink.frames)
	assert.Equal(t, []string{"RaceA"}, sink.started)
	assert.Equal(t, []string{"RaceA"}, sink.ended)
	assert.Equal(t, int64(1), a.Sessions())
	assert.False(t, a.Connected())
}

func TestAgentReconnectsToNextSession(t *testing.T) {
	srv := scriptedEndpoint(t, func(n int64) (int, string) {
		switch {
		case n <= 3:
			return http.StatusOK, `{"name":"RaceA"}`
		case n <= 5:
			return http.StatusServiceUnavailable, "between sessions"
		default:
			return http.StatusOK, `{"name":"RaceB"}`
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink := &recordingSink{onFrame: func(session string) {
		if session == "RaceB" {
			cancel()
		}
	}}
	a := NewAgent("agent-1", testSource(srv.URL, true), sink)
	require.NoError(t, a.Run(ctx))

	assert.Equal(t, []string{"RaceA", "RaceB"}, sink.started)
	assert.Equal(t, []string{"RaceA", "RaceB"}, sink.ended)
	assert.Equal(t, []string{"RaceA", "RaceA", "RaceB"}, sink.frames)
	assert.Equal(t, int64(2), a.Sessions())
}

func TestAgentStopsWhileWaitingForEndpoint(t *testing.T) {
	srv := scriptedEndpoint(t, func(int64) (int, string) {
		return http.StatusServiceUnavailable, "not running"
	})

	a := NewAgent("agent-1", testSource(srv.URL, true))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, a.Run(ctx))
	assert.Zero(t, a.Sessions())
}

func TestForwardCountsFailures(t *testing.T) {
	failed := metrics.FramesForwardedTotal.WithLabelValues("recording", "failed")
	ok := metrics.FramesForwardedTotal.WithLabelValues("recording", "success")
	beforeFailed, beforeOK := testutil.ToFloat64(failed), testutil.ToFloat64(ok)

	good := &recordingSink{}
	a := NewAgent("agent-1", testSource("http://localhost:1", false), &recordingSink{err: errors.New("boom")}, good)
	a.forward(context.Background(), "RaceA", &generichttp.SimState{Name: "RaceA"})

	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, []string{"RaceA"}, good.frames)
}

func TestConfigNewAgent(t *testing.T) {
	var out bytes.Buffer
	cfg := &Config{
		SourceOptions: options.NewSourceOptions(),
		HttpOptions:   options.NewHttpOptions("127.0.0.1:0"),
		MqttOptions:   options.NewMqttOptions(),
		OutputOptions: &options.OutputOptions{Format: options.OutputTable},
		Stdout:        &out,
	}

	a, err := cfg.NewAgent()
	require.NoError(t, err)
	require.Len(t, a.sinks, 1)
	assert.Equal(t, "table", a.sinks[0].Name())
	assert.NotNil(t, a.probe)
	assert.Nil(t, a.mqttClient)

	cfg.OutputOptions.Format = options.OutputNone
	cfg.MqttOptions.Broker = "tcp://localhost:1883"
	a, err = cfg.NewAgent()
	require.NoError(t, err)
	require.Len(t, a.sinks, 1)
	assert.Equal(t, "mqtt", a.sinks[0].Name())
	assert.NotNil(t, a.mqttClient)
	assert.Same(t, a.mqttSink, a.sinks[0])
}

func TestDiscoverAgentID(t *testing.T) {
	t.Setenv("SIMETRY_AGENT_ID", " rig-3 ")
	assert.Equal(t, "rig-3", DiscoverAgentID())

	t.Setenv("SIMETRY_AGENT_ID", "")
	assert.NotEmpty(t, DiscoverAgentID())
}

func TestWillPayload(t *testing.T) {
	var status AgentStatus
	require.NoError(t, json.Unmarshal(WillPayload("rig-3"), &status))
	assert.Equal(t, AgentStatus{Agent: "rig-3", Reason: ReasonUnexpectedDisconnect}, status)
}
