package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ScenarioOptions)(nil)

// ScenarioOptions points the companion server at a scripted session to replay.
type ScenarioOptions struct {
	// File is a YAML scenario. Empty means the state is only set through PUT.
	File string `json:"file" mapstructure:"file"`

	// Interval overrides the scenario's frame interval when non-zero.
	Interval time.Duration `json:"interval" mapstructure:"interval"`

	// Loop overrides the scenario's loop setting when true.
	Loop bool `json:"loop" mapstructure:"loop"`
}

// NewScenarioOptions creates a ScenarioOptions with default values.
func NewScenarioOptions() *ScenarioOptions {
	return &ScenarioOptions{}
}

func (o *ScenarioOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if o.Interval < 0 {
		return []error{fmt.Errorf("--scenario.interval must not be negative, got %s", o.Interval)}
	}
	return nil
}

func (o *ScenarioOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.File, "scenario.file", o.File, "YAML file with a scripted session to replay.")
	fs.DurationVar(&o.Interval, "scenario.interval", o.Interval, "Frame interval, overriding the scenario file.")
	fs.BoolVar(&o.Loop, "scenario.loop", o.Loop, "Replay the scenario forever instead of ending the session after the last frame.")
}
