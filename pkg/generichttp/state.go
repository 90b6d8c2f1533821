package generichttp

import (
	"fmt"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/autopeer-io/simetry/pkg/simetry"
)

var _ simetry.Moment = (*SimState)(nil)

// stateJSON matches object keys exactly against the field tags.
var stateJSON = jsoniter.Config{CaseSensitive: true}.Froze()

// DecodeState parses a single state document. Keys are matched with exact
// case and unknown keys are skipped. Non-whitespace data after the document
// fails with ErrDecode, as do invalid UTF-8 and a null document.
func DecodeState(data []byte) (*SimState, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrDecode)
	}
	var state *SimState
	if err := stateJSON.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if state == nil {
		return nil, fmt.Errorf("%w: null document", ErrDecode)
	}
	return state, nil
}

// SimState is the document served by a generic HTTP telemetry endpoint.
// Every field is optional; a missing field keeps its zero value.
type SimState struct {
	Name         string                   `json:"name" yaml:"name"`
	VehicleLeft  bool                     `json:"vehicle_left" yaml:"vehicle_left"`
	VehicleRight bool                     `json:"vehicle_right" yaml:"vehicle_right"`
	Telemetry    *simetry.BasicTelemetry  `json:"basic_telemetry,omitempty" yaml:"basic_telemetry,omitempty"`
	Shift        *simetry.AngularVelocity `json:"shift_point,omitempty" yaml:"shift_point,omitempty"`
	RacingFlags  simetry.RacingFlags      `json:"flags" yaml:"flags"`
	VehicleID    *string                  `json:"vehicle_unique_id,omitempty" yaml:"vehicle_unique_id,omitempty"`
	IgnitionOn   bool                     `json:"ignition_on" yaml:"ignition_on"`
	StarterOn    bool                     `json:"starter_on" yaml:"starter_on"`
}

func (s *SimState) IsVehicleLeft() bool  { return s.VehicleLeft }
func (s *SimState) IsVehicleRight() bool { return s.VehicleRight }
func (s *SimState) IsIgnitionOn() bool   { return s.IgnitionOn }
func (s *SimState) IsStarterOn() bool    { return s.StarterOn }

func (s *SimState) BasicTelemetry() (simetry.BasicTelemetry, bool) {
	if s.Telemetry == nil {
		return simetry.BasicTelemetry{}, false
	}
	return *s.Telemetry, true
}

func (s *SimState) ShiftPoint() (simetry.AngularVelocity, bool) {
	if s.Shift == nil {
		return 0, false
	}
	return *s.Shift, true
}

func (s *SimState) Flags() simetry.RacingFlags {
	return s.RacingFlags
}

func (s *SimState) VehicleUniqueID() (string, bool) {
	if s.VehicleID == nil {
		return "", false
	}
	return *s.VehicleID, true
}

// DeepCopy returns an independent copy of s.
func (s *SimState) DeepCopy() *SimState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Telemetry != nil {
		bt := *s.Telemetry
		out.Telemetry = &bt
	}
	if s.Shift != nil {
		v := *s.Shift
		out.Shift = &v
	}
	if s.VehicleID != nil {
		id := *s.VehicleID
		out.VehicleID = &id
	}
	return &out
}
