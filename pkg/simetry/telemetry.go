package simetry

// BasicTelemetry is the minimal driving state most simulations expose.
type BasicTelemetry struct {
	Gear                   int8            `json:"gear" yaml:"gear"`
	Speed                  Velocity        `json:"speed" yaml:"speed"`
	EngineRotationSpeed    AngularVelocity `json:"engine_rotation_speed" yaml:"engine_rotation_speed"`
	MaxEngineRotationSpeed AngularVelocity `json:"max_engine_rotation_speed" yaml:"max_engine_rotation_speed"`
	PitLimiterEngaged      bool            `json:"pit_limiter_engaged" yaml:"pit_limiter_engaged"`
	InPitLane              bool            `json:"in_pit_lane" yaml:"in_pit_lane"`
}

// RacingFlags holds the flags currently shown to the driver.
// The zero value means no flag is out.
type RacingFlags struct {
	Green      bool `json:"green" yaml:"green"`
	Yellow     bool `json:"yellow" yaml:"yellow"`
	Blue       bool `json:"blue" yaml:"blue"`
	White      bool `json:"white" yaml:"white"`
	Checkered  bool `json:"checkered" yaml:"checkered"`
	Red        bool `json:"red" yaml:"red"`
	Black      bool `json:"black" yaml:"black"`
	Orange     bool `json:"orange" yaml:"orange"`
	BlackWhite bool `json:"black_white" yaml:"black_white"`
}

// IsClear reports whether no flag is out.
func (f RacingFlags) IsClear() bool {
	return f == RacingFlags{}
}

// Active returns the names of the flags that are out, in a fixed order.
func (f RacingFlags) Active() []string {
	var out []string
	for _, fl := range []struct {
		on   bool
		name string
	}{
		{f.Green, "green"},
		{f.Yellow, "yellow"},
		{f.Blue, "blue"},
		{f.White, "white"},
		{f.Checkered, "checkered"},
		{f.Red, "red"},
		{f.Black, "black"},
		{f.Orange, "orange"},
		{f.BlackWhite, "black_white"},
	} {
		if fl.on {
			out = append(out, fl.name)
		}
	}
	return out
}
