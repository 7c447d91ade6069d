package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sharp-sim/sharp-sim/sim/cache"
	"github.com/sharp-sim/sharp-sim/sim/recon"
	"github.com/sharp-sim/sharp-sim/sim/trace"
)

const (
	VariantGroup     = "group"
	VariantCrossCore = "cross-core"
)

// ValidVariants is the set of recognized attack variants.
var ValidVariants = map[string]bool{"": true, VariantGroup: true, VariantCrossCore: true}

// ScenarioConfig holds everything needed to build a scenario, loadable from
// a YAML file. CLI flags override file values.
type ScenarioConfig struct {
	Variant    string `yaml:"variant"`     // "group" (default) or "cross-core"
	Policy     string `yaml:"policy"`      // "random" (default) or "ownership"
	Capacity   int    `yaml:"capacity"`    // ways of the shared set
	Spies      int    `yaml:"spies"`       // spy group size (group variant only)
	Interval   int64  `yaml:"interval"`    // victim probe interval, 0 = spies+1
	L2Capacity int    `yaml:"l2_capacity"` // private level per actor/core, 0 = none (group variant)
	Key        string `yaml:"key"`         // secret bits, e.g. "010101"
	Iterations int    `yaml:"iterations"`
	Seed       int64  `yaml:"seed"`
	Noise      int    `yaml:"noise"` // percent chance of a foreign access per tick
	Trace      string `yaml:"trace"` // "none" or "probes"
}

// DefaultScenarioConfig returns the reference configuration: four ways, four
// spies and a victim, six key bits, five iterations.
func DefaultScenarioConfig() ScenarioConfig {
	return ScenarioConfig{
		Variant:    VariantGroup,
		Policy:     cache.PolicyRandom,
		Capacity:   4,
		Spies:      4,
		Key:        "010101",
		Iterations: 5,
		Seed:       42,
		Trace:      string(trace.TraceLevelNone),
	}
}

// LoadScenarioConfig reads a YAML file over the defaults.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	cfg := DefaultScenarioConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing scenario config: %w", err)
	}
	return &cfg, nil
}

// EffectiveInterval returns the victim probe interval, defaulting to spies+1.
func (c *ScenarioConfig) EffectiveInterval() int64 {
	if c.Interval == 0 {
		return int64(c.Spies) + 1
	}
	return c.Interval
}

// Validate checks names and parameter ranges.
func (c *ScenarioConfig) Validate() error {
	if !ValidVariants[c.Variant] {
		return fmt.Errorf("unknown attack variant %q", c.Variant)
	}
	if !cache.IsValidPolicy(c.Policy) {
		return fmt.Errorf("unknown eviction policy %q", c.Policy)
	}
	if !trace.IsValidTraceLevel(c.Trace) {
		return fmt.Errorf("unknown trace level %q", c.Trace)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be > 0, got %d", c.Capacity)
	}
	if c.L2Capacity < 0 {
		return fmt.Errorf("l2_capacity must be non-negative, got %d", c.L2Capacity)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", c.Iterations)
	}
	if c.Noise < 0 || c.Noise > 100 {
		return fmt.Errorf("noise must be in [0, 100], got %d", c.Noise)
	}
	key, err := recon.ParseSecret(c.Key)
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("key must not be empty")
	}
	if c.Variant == VariantCrossCore {
		return nil
	}
	if c.Spies <= 0 {
		return fmt.Errorf("spies must be > 0, got %d", c.Spies)
	}
	if c.Interval != 0 && c.Interval < int64(c.Spies)+1 {
		return fmt.Errorf("interval must be >= spies+1 (%d), got %d", c.Spies+1, c.Interval)
	}
	return nil
}

// Build validates the configuration and assembles the scenario it describes.
func Build(c ScenarioConfig) (Scenario, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	secret, _ := recon.ParseSecret(c.Key)
	rng := NewPartitionedRNG(NewSimulationKey(c.Seed))
	var st *trace.SimulationTrace
	if trace.TraceLevel(c.Trace) == trace.TraceLevelProbes {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelProbes})
	}

	newLevel := func(name string, capacity int, outer *cache.Level) *cache.Level {
		return cache.NewLevel(name, capacity, cache.NewPolicy(c.Policy, rng.ForSubsystem(SubsystemLevel(name))), outer)
	}
	root := newLevel("L3", c.Capacity, nil)

	if c.Variant == VariantCrossCore {
		s := buildCrossCore(c, secret, root, newLevel)
		s.Trace = st
		if c.Noise > 0 {
			s.Noise = NewNoiseSource(c.Noise, 2, s.Target+1, c.Capacity, root, rng.ForSubsystem(SubsystemNoise))
		}
		return s, nil
	}

	s := buildGroup(c, secret, root, newLevel)
	s.Trace = st
	if c.Noise > 0 {
		s.Noise = NewNoiseSource(c.Noise, c.Spies+1, cache.Line(c.Spies+1), c.Capacity, root, rng.ForSubsystem(SubsystemNoise))
	}
	return s, nil
}

// buildGroup places spy i on core i+1 with line i, and the victim on core 0
// with line N. With l2_capacity set, every actor gets a private level under
// the shared root.
func buildGroup(c ScenarioConfig, secret recon.Key, root *cache.Level, newLevel func(string, int, *cache.Level) *cache.Level) *GroupScenario {
	interval := c.EffectiveInterval()
	levelFor := func(name string) *cache.Level {
		if c.L2Capacity == 0 {
			return root
		}
		return newLevel(name, c.L2Capacity, root)
	}
	spies := make([]*ProbeActor, c.Spies)
	for i := range spies {
		spies[i] = NewSpy(i, c.Spies, i+1, cache.Line(i), interval, levelFor(fmt.Sprintf("L2.spy%d", i)))
	}
	victim := NewVictim(c.Spies, 0, cache.Line(c.Spies), interval, levelFor("L2.victim"))
	return NewGroupScenario(secret, c.Iterations, root, spies, victim)
}

// buildCrossCore pins spy A to core 0 and spy B to core 1, each behind its own
// level under the shared root. The victim runs on core 1 next to spy B.
// Spy A primes lines 0..capacity-1; the victim's address is line capacity.
func buildCrossCore(c ScenarioConfig, secret recon.Key, root *cache.Level, newLevel func(string, int, *cache.Level) *cache.Level) *CrossCoreScenario {
	l2 := c.L2Capacity
	if l2 == 0 {
		l2 = c.Capacity
	}
	levelA := newLevel("L2.core0", l2, root)
	levelB := newLevel("L2.core1", l2, root)

	prime := make([]cache.Line, c.Capacity)
	for i := range prime {
		prime[i] = cache.Line(i)
	}
	target := cache.Line(c.Capacity)

	spyA := NewSpy(0, 2, 0, prime[0], crossCorePhases, levelA)
	spyB := NewSpy(1, 2, 1, target, crossCorePhases, levelB)
	victim := NewVictim(2, 1, target, crossCorePhases, levelB)
	return NewCrossCoreScenario(secret, c.Iterations, root, spyA, spyB, victim, prime, target)
}
