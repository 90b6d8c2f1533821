package generichttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
	"k8s.io/utils/ptr"

	"github.com/autopeer-io/simetry/internal/pkg/metrics"
	"github.com/autopeer-io/simetry/pkg/simetry"
)

// endpoint serves whatever body is currently set.
type endpoint struct {
	mu     sync.Mutex
	status int
	body   string
	hits   atomic.Int32
}

func newEndpoint(t *testing.T, body string) (*endpoint, *httptest.Server) {
	t.Helper()
	e := &endpoint{status: http.StatusOK, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.hits.Add(1)
		e.mu.Lock()
		status, body := e.status, e.body
		e.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return e, srv
}

func (e *endpoint) set(status int, body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = status
	e.body = body
}

const fullRaceA = `{
	"name": "RaceA",
	"vehicle_left": true,
	"vehicle_right": false,
	"basic_telemetry": {
		"gear": 4,
		"speed": 52.5,
		"engine_rotation_speed": 680.5,
		"max_engine_rotation_speed": 837.75,
		"pit_limiter_engaged": false,
		"in_pit_lane": true
	},
	"shift_point": 790.25,
	"flags": {"yellow": true, "blue": true},
	"vehicle_unique_id": "porsche-911-gt3-r",
	"ignition_on": true,
	"starter_on": true
}`

func TestTryConnectInvalidAddress(t *testing.T) {
	for _, addr := range []string{
		"",
		"::not a uri",
		"localhost:25055",
		"ftp://localhost:25055/",
		"http://",
		"http://[::1",
		"/relative/path",
	} {
		t.Run(addr, func(t *testing.T) {
			c, err := TryConnect(context.Background(), addr)
			require.ErrorIs(t, err, ErrInvalidAddress)
			assert.Nil(t, c)
		})
	}
}

func TestConnectKeepsRetryingInvalidAddress(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := Connect(ctx, "not a uri", 500*time.Millisecond, WithClock(fc))
		done <- err
	}()

	steps := 0
	deadline := time.After(5 * time.Second)
	for steps < 5 {
		select {
		case err := <-done:
			t.Fatalf("Connect returned early: %v", err)
		case <-deadline:
			t.Fatalf("only %d retries observed", steps)
		default:
		}
		if fc.HasWaiters() {
			fc.Step(500 * time.Millisecond)
			steps++
			continue
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Connect did not honor cancellation")
	}
}

func TestConnectRetriesUntilEndpointAnswers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			http.Error(w, "simulator starting", http.StatusServiceUnavailable)
		case 2:
			_, _ = w.Write([]byte(`not json`))
		default:
			_, _ = w.Write([]byte(`{"name":"RaceC"}`))
		}
	}))
	defer srv.Close()

	fc := clocktesting.NewFakeClock(time.Now())
	type result struct {
		c   *Client
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := Connect(context.Background(), srv.URL, time.Second, WithClock(fc))
		done <- result{c, err}
	}()

	steps := 0
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-done:
			require.NoError(t, r.err)
			assert.Equal(t, 2, steps)
			assert.Equal(t, int32(3), calls.Load())
			assert.Equal(t, "RaceC", r.c.Name())
			assert.Equal(t, StateConnected, r.c.State())
			return
		case <-deadline:
			t.Fatalf("Connect did not return, %d retries observed", steps)
		default:
		}
		if fc.HasWaiters() {
			fc.Step(time.Second)
			steps++
			continue
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTryConnectSurfacesFailures(t *testing.T) {
	e, srv := newEndpoint(t, `{"name":`)
	_, err := TryConnect(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrDecode)

	e.set(http.StatusOK, `null`)
	_, err = TryConnect(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrDecode)

	for _, body := range []string{`{"name":"RaceA"} garbage`, `{}{}`, "{\"name\":\"Race\xff\"}"} {
		e.set(http.StatusOK, body)
		_, err = TryConnect(context.Background(), srv.URL)
		require.ErrorIs(t, err, ErrDecode, body)
	}

	e.set(http.StatusNotFound, `no such page`)
	_, err = TryConnect(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrTransport)

	srv.Close()
	_, err = TryConnect(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrTransport)
}

func TestNextSnapshotRoundTrip(t *testing.T) {
	_, srv := newEndpoint(t, fullRaceA)

	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "RaceA", c.Name())

	got, err := c.NextSnapshot(context.Background())
	require.NoError(t, err)

	want := &SimState{
		Name:        "RaceA",
		VehicleLeft: true,
		Telemetry: &simetry.BasicTelemetry{
			Gear:                   4,
			Speed:                  52.5,
			EngineRotationSpeed:    680.5,
			MaxEngineRotationSpeed: 837.75,
			InPitLane:              true,
		},
		Shift:       ptr.To(simetry.AngularVelocity(790.25)),
		RacingFlags: simetry.RacingFlags{Yellow: true, Blue: true},
		VehicleID:   ptr.To("porsche-911-gt3-r"),
		IgnitionOn:  true,
		StarterOn:   true,
	}
	assert.Equal(t, want, got)

	// Re-encoding yields the same document.
	var in, out map[string]any
	require.NoError(t, json.Unmarshal([]byte(fullRaceA), &in))
	raw, err := json.Marshal(got)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			outNested, _ := out[k].(map[string]any)
			for nk, nv := range nested {
				assert.Equal(t, nv, outNested[nk], k+"."+nk)
			}
			continue
		}
		assert.Equal(t, v, out[k], k)
	}
}

func TestNextMomentAccessors(t *testing.T) {
	_, srv := newEndpoint(t, fullRaceA)
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)

	var src simetry.Source = c
	m, err := src.NextMoment(context.Background())
	require.NoError(t, err)

	assert.True(t, m.IsVehicleLeft())
	assert.False(t, m.IsVehicleRight())
	bt, ok := m.BasicTelemetry()
	require.True(t, ok)
	assert.Equal(t, int8(4), bt.Gear)
	sp, ok := m.ShiftPoint()
	require.True(t, ok)
	assert.Equal(t, simetry.AngularVelocity(790.25), sp)
	assert.Equal(t, simetry.RacingFlags{Yellow: true, Blue: true}, m.Flags())
	id, ok := m.VehicleUniqueID()
	require.True(t, ok)
	assert.Equal(t, "porsche-911-gt3-r", id)
	assert.True(t, m.IsIgnitionOn())
	assert.True(t, m.IsStarterOn())
}

func TestNextSnapshotSessionChange(t *testing.T) {
	e, srv := newEndpoint(t, `{"name":"RaceA"}`)
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.PollsTotal.WithLabelValues(ReasonMismatch))

	e.set(http.StatusOK, `{"name":"RaceB","ignition_on":true}`)
	s, err := c.NextSnapshot(context.Background())
	require.ErrorIs(t, err, simetry.ErrSessionEnded)
	assert.Nil(t, s)
	assert.Equal(t, "RaceA", c.Name())
	assert.Equal(t, StateEnded, c.State())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PollsTotal.WithLabelValues(ReasonMismatch)))

	// Ended stays ended, even once the original session is back.
	e.set(http.StatusOK, `{"name":"RaceA"}`)
	hits := e.hits.Load()
	_, err = c.NextSnapshot(context.Background())
	require.ErrorIs(t, err, simetry.ErrSessionEnded)
	assert.Equal(t, hits, e.hits.Load())
}

func TestNextSnapshotTimeout(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"name":"RaceA"}`))
			return
		}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := TryConnect(context.Background(), srv.URL, WithPollTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	s, err := c.NextSnapshot(context.Background())
	require.ErrorIs(t, err, simetry.ErrSessionEnded)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, s)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, StateEnded, c.State())
}

func TestNextSnapshotTransportAndDecodeFailuresEndSession(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"not json", http.StatusOK, `<html></html>`},
		{"array", http.StatusOK, `[1,2,3]`},
		{"wrong field type", http.StatusOK, `{"name":"RaceA","ignition_on":"yes"}`},
		{"trailing data", http.StatusOK, `{"name":"RaceA"} garbage`},
		{"two documents", http.StatusOK, `{"name":"RaceA"}{}`},
		{"invalid utf-8", http.StatusOK, "{\"name\":\"RaceA\",\"vehicle_unique_id\":\"gt3\xff\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, srv := newEndpoint(t, `{"name":"RaceA"}`)
			c, err := TryConnect(context.Background(), srv.URL)
			require.NoError(t, err)

			e.set(tt.status, tt.body)
			_, err = c.NextSnapshot(context.Background())
			require.ErrorIs(t, err, simetry.ErrSessionEnded)
			assert.Equal(t, "RaceA", c.Name())
		})
	}
}

func TestNextSnapshotEndpointGone(t *testing.T) {
	_, srv := newEndpoint(t, `{"name":"RaceA"}`)
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)

	srv.Close()
	_, err = c.NextSnapshot(context.Background())
	require.ErrorIs(t, err, simetry.ErrSessionEnded)
}

func TestNextSnapshotCallerCancellation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`{"name":"RaceA"}`))
	}))
	defer srv.Close()

	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err = c.NextSnapshot(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateConnected, c.State())

	s, err := c.NextSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RaceA", s.Name)
}

func TestEmptyPayloadDefaults(t *testing.T) {
	_, srv := newEndpoint(t, `{}`)
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "", c.Name())

	s, err := c.NextSnapshot(context.Background())
	require.NoError(t, err)

	assert.False(t, s.IsVehicleLeft())
	assert.False(t, s.IsVehicleRight())
	assert.False(t, s.IsIgnitionOn())
	assert.False(t, s.IsStarterOn())
	_, ok := s.BasicTelemetry()
	assert.False(t, ok)
	_, ok = s.ShiftPoint()
	assert.False(t, ok)
	_, ok = s.VehicleUniqueID()
	assert.False(t, ok)
	assert.True(t, s.Flags().IsClear())
}

func TestUnknownFieldsIgnored(t *testing.T) {
	_, srv := newEndpoint(t, `{"name":"RaceA","fuel_level":0.4,"flags":{"green":true,"purple":true}}`)
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)

	s, err := c.NextSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, simetry.RacingFlags{Green: true}, s.Flags())
}

func TestKeysMatchExactCase(t *testing.T) {
	e, srv := newEndpoint(t, `{"name":"RaceA"}`)
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)

	e.set(http.StatusOK, `{"NAME":"RaceB","Ignition_On":true,"name":"RaceA"}`)
	s, err := c.NextSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RaceA", s.Name)
	assert.False(t, s.IsIgnitionOn())

	e.set(http.StatusOK, `{"name":"RaceA","Name":"RaceB"}`)
	s, err = c.NextSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RaceA", s.Name)
	assert.Equal(t, "RaceA", c.Name())
}

func TestTrailingWhitespaceAccepted(t *testing.T) {
	_, srv := newEndpoint(t, "{\"name\":\"RaceA\"}\n\t ")
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "RaceA", c.Name())
}

func TestOversizedDocumentRejected(t *testing.T) {
	_, srv := newEndpoint(t, `{"name":"`+strings.Repeat("a", maxDocumentSize)+`"}`)
	_, err := TryConnect(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrDecode)
}

func TestRepeatedPollsAreEqual(t *testing.T) {
	_, srv := newEndpoint(t, fullRaceA)
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)

	first, err := c.NextSnapshot(context.Background())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		next, err := c.NextSnapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, next)
		assert.NotSame(t, first, next)
	}
}

func TestCloseEndsSession(t *testing.T) {
	e, srv := newEndpoint(t, `{"name":"RaceA"}`)
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)

	c.Close()
	assert.Equal(t, StateEnded, c.State())

	hits := e.hits.Load()
	_, err = c.NextSnapshot(context.Background())
	require.ErrorIs(t, err, simetry.ErrSessionEnded)
	assert.Equal(t, hits, e.hits.Load())

	// Closing twice is harmless.
	c.Close()
}

func TestQueryDoesNotTouchSession(t *testing.T) {
	e, srv := newEndpoint(t, `{"name":"RaceA"}`)
	c, err := TryConnect(context.Background(), srv.URL)
	require.NoError(t, err)

	e.set(http.StatusOK, `{"name":"RaceB"}`)
	s, err := c.Query(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RaceB", s.Name)
	assert.Equal(t, StateConnected, c.State())
}

func TestSimStateDeepCopy(t *testing.T) {
	var nilState *SimState
	assert.Nil(t, nilState.DeepCopy())

	s := &SimState{
		Name:      "RaceA",
		Telemetry: &simetry.BasicTelemetry{Gear: 2},
		Shift:     ptr.To(simetry.AngularVelocity(700)),
		VehicleID: ptr.To("car"),
	}
	cp := s.DeepCopy()
	require.Equal(t, s, cp)

	cp.Telemetry.Gear = 3
	*cp.Shift = 1
	*cp.VehicleID = "other"
	assert.Equal(t, int8(2), s.Telemetry.Gear)
	assert.Equal(t, simetry.AngularVelocity(700), *s.Shift)
	assert.Equal(t, "car", *s.VehicleID)
}
