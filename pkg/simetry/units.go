package simetry

import (
	"fmt"
	"math"
)

// AngularVelocity is a rotation speed in radians per second.
// On the wire it is a bare number in that base unit.
type AngularVelocity float64

// AngularVelocityFromRPM converts revolutions per minute.
func AngularVelocityFromRPM(rpm float64) AngularVelocity {
	return AngularVelocity(rpm * 2 * math.Pi / 60)
}

// RPM returns the value in revolutions per minute.
func (v AngularVelocity) RPM() float64 {
	return float64(v) * 60 / (2 * math.Pi)
}

func (v AngularVelocity) String() string {
	return fmt.Sprintf("%.0f rpm", v.RPM())
}

// Velocity is a linear speed in metres per second.
type Velocity float64

// VelocityFromKilometersPerHour converts km/h.
func VelocityFromKilometersPerHour(kmh float64) Velocity {
	return Velocity(kmh / 3.6)
}

// KilometersPerHour returns the value in km/h.
func (v Velocity) KilometersPerHour() float64 {
	return float64(v) * 3.6
}

func (v Velocity) String() string {
	return fmt.Sprintf("%.1f km/h", v.KilometersPerHour())
}
