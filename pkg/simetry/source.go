package simetry

import (
	"context"
	"errors"
)

// ErrSessionEnded is returned by Source.NextMoment when the session the source
// was bound to is over. It is a normal terminal signal, not a failure.
var ErrSessionEnded = errors.New("simetry: session ended")

// Source is a live telemetry provider bound to one simulation session.
type Source interface {
	// Name returns the identifier of the session this source is bound to.
	Name() string

	// NextMoment produces the next telemetry moment. It returns ErrSessionEnded
	// once the session is over, or the context error if ctx is done.
	// Calls must not overlap.
	NextMoment(ctx context.Context) (Moment, error)
}

// Moment is one telemetry state of a running simulation.
type Moment interface {
	IsVehicleLeft() bool
	IsVehicleRight() bool

	// BasicTelemetry reports the basic telemetry block, if the simulation
	// provides one.
	BasicTelemetry() (BasicTelemetry, bool)

	// ShiftPoint reports the recommended engine speed to shift up at.
	ShiftPoint() (AngularVelocity, bool)

	Flags() RacingFlags

	// VehicleUniqueID reports an identifier of the driven vehicle model.
	VehicleUniqueID() (string, bool)

	IsIgnitionOn() bool
	IsStarterOn() bool
}
