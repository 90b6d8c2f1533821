package simserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/simetry/pkg/generichttp"
	"github.com/autopeer-io/simetry/pkg/log"
)

// DefaultFrameInterval is used when a scenario does not set one.
const DefaultFrameInterval = 100 * time.Millisecond

// Scenario is a scripted session replayed frame by frame.
type Scenario struct {
	Interval time.Duration           `yaml:"interval"`
	Loop     bool                    `yaml:"loop"`
	Frames   []*generichttp.SimState `yaml:"frames"`
}

// LoadScenario reads a YAML scenario from path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario and applies defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Frames) == 0 {
		return nil, errors.New("scenario has no frames")
	}
	for i, f := range sc.Frames {
		if f == nil {
			return nil, fmt.Errorf("scenario frame %d is empty", i)
		}
	}
	if sc.Interval < 0 {
		return nil, fmt.Errorf("scenario interval must not be negative, got %s", sc.Interval)
	}
	if sc.Interval == 0 {
		sc.Interval = DefaultFrameInterval
	}
	return &sc, nil
}

// Player publishes the frames of a Scenario into a Store.
type Player struct {
	scenario *Scenario
	store    *Store
	clock    clock.WithTicker
	log      log.Logger
}

// NewPlayer creates a Player. A nil clk means the real clock.
func NewPlayer(sc *Scenario, store *Store, clk clock.WithTicker, logger log.Logger) *Player {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Player{scenario: sc, store: store, clock: clk, log: logger}
}

// Start replays the scenario until ctx is done or, without looping, until
// the last frame has been shown for one interval. The state is then cleared
// so clients see the session end.
func (p *Player) Start(ctx context.Context) error {
	defer p.store.Clear()

	p.log.Info("Replaying scenario", "frames", len(p.scenario.Frames),
		"interval", p.scenario.Interval.String(), "loop", p.scenario.Loop)

	ticker := p.clock.NewTicker(p.scenario.Interval)
	defer ticker.Stop()

	for {
		for _, frame := range p.scenario.Frames {
			p.store.Set(frame)

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C():
			}
		}
		if !p.scenario.Loop {
			p.log.Info("Scenario finished")
			return nil
		}
	}
}
