package agent

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/simetry/pkg/generichttp"
)

var _ Sink = (*TableSink)(nil)

// TableSink renders each snapshot as a small table.
type TableSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTableSink(w io.Writer) *TableSink {
	return &TableSink{w: w}
}

func (s *TableSink) Name() string { return "table" }

func (s *TableSink) Forward(_ context.Context, session string, state *generichttp.SimState) error {
	table := uitable.New()
	table.MaxColWidth = 48
	table.Wrap = true

	table.AddRow("SESSION", "GEAR", "SPEED", "RPM", "SHIFT", "FLAGS", "IGNITION", "STARTER", "VEHICLE")

	gear, speed, rpm := "-", "-", "-"
	if bt, ok := state.BasicTelemetry(); ok {
		gear = strconv.Itoa(int(bt.Gear))
		speed = bt.Speed.String()
		rpm = fmt.Sprintf("%s / %s", bt.EngineRotationSpeed, bt.MaxEngineRotationSpeed)
	}
	shift := "-"
	if sp, ok := state.ShiftPoint(); ok {
		shift = sp.String()
	}
	flags := "-"
	if active := state.Flags().Active(); len(active) > 0 {
		flags = strings.Join(active, ",")
	}
	vehicle := "-"
	if id, ok := state.VehicleUniqueID(); ok {
		vehicle = id
	}

	table.AddRow(session, gear, speed, rpm, shift, flags, state.IsIgnitionOn(), state.IsStarterOn(), vehicle)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, table.String())
	return err
}
