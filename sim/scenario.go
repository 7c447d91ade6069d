package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sharp-sim/sharp-sim/sim/cache"
	"github.com/sharp-sim/sharp-sim/sim/recon"
	"github.com/sharp-sim/sharp-sim/sim/trace"
)

// ErrTickBudgetExceeded is returned when an iteration runs past its tick
// budget without the victim consuming the whole key.
var ErrTickBudgetExceeded = errors.New("tick budget exceeded")

// Scenario is a runnable attack configuration.
type Scenario interface {
	Run() (*Result, error)
}

// CoreCount is a per-core counter value.
type CoreCount struct {
	Core  int
	Count int64
}

// Result is everything a scenario run produced, ready for reporting.
type Result struct {
	Variant         string
	Secret          recon.Key
	Partials        []recon.Key
	Final           recon.Merged
	Diagnostics     recon.Diagnostics
	ForcedEvictions []CoreCount // lifetime counters of the root level
	Trace           *trace.SimulationTrace
}

func newResult(variant string, secret recon.Key, r *recon.Reconstructor, root *cache.Level, st *trace.SimulationTrace) *Result {
	final := r.Finalize()
	res := &Result{
		Variant:     variant,
		Secret:      secret,
		Partials:    r.Partials(),
		Final:       final,
		Diagnostics: recon.Diagnose(final.Key, secret),
		Trace:       st,
	}
	for _, c := range root.ForcedEvictionCores() {
		res.ForcedEvictions = append(res.ForcedEvictions, CoreCount{Core: c, Count: root.ForcedEvictions(c)})
	}
	for _, c := range final.Conflicts {
		logrus.Warnf("conflict at position %d: iteration %d saw %d, kept %d", c.Position, c.Iteration, c.Seen, c.Kept)
	}
	return res
}

// === GroupScenario ===

// GroupScenario runs N spies and one victim on a single shared clock.
// Every tick, due spies probe in ascending index order before a due victim
// steps; the victim accesses its line only for 1 bits but advances its
// schedule for every bit.
type GroupScenario struct {
	Secret     recon.Key
	Iterations int
	Root       *cache.Level
	Spies      []*ProbeActor
	Victim     *ProbeActor
	Noise      *NoiseSource
	Trace      *trace.SimulationTrace
	Clock      int64
	MaxTicks   int64 // per iteration

	recon *recon.Reconstructor
}

// NewGroupScenario wires a spy group and a victim over the tree rooted at root.
// Spies must be given in ascending ID order.
// Panics on an empty secret, fewer than one iteration, or no spies.
func NewGroupScenario(secret recon.Key, iterations int, root *cache.Level, spies []*ProbeActor, victim *ProbeActor) *GroupScenario {
	checkScenario(secret, iterations, root)
	if len(spies) == 0 {
		panic("GroupScenario: at least one spy is required")
	}
	if victim == nil {
		panic("GroupScenario: victim must not be nil")
	}
	for i, s := range spies {
		if s.ID != i || s.Peers != len(spies) {
			panic(fmt.Sprintf("GroupScenario: spy at index %d has id %d of %d peers", i, s.ID, s.Peers))
		}
	}
	maxInterval := victim.Interval
	for _, s := range spies {
		maxInterval = max(maxInterval, s.Interval)
	}
	return &GroupScenario{
		Secret:     secret,
		Iterations: iterations,
		Root:       root,
		Spies:      spies,
		Victim:     victim,
		MaxTicks:   2 * int64(len(secret)+2) * maxInterval,
		recon:      recon.NewReconstructor(len(secret)),
	}
}

func checkScenario(secret recon.Key, iterations int, root *cache.Level) {
	if len(secret) == 0 {
		panic("Scenario: secret key must not be empty")
	}
	if iterations < 1 {
		panic(fmt.Sprintf("Scenario: iterations must be >= 1, got %d", iterations))
	}
	if root == nil {
		panic("Scenario: root cache level must not be nil")
	}
}

// Run executes every iteration and merges the partial keys.
func (s *GroupScenario) Run() (*Result, error) {
	for it := 0; it < s.Iterations; it++ {
		truncated := s.runIteration(it)
		histories := make([][]bool, len(s.Spies))
		for i, spy := range s.Spies {
			histories[i] = spy.History
		}
		partial := s.recon.AddSpies(histories)
		if s.Trace.Enabled() {
			s.Trace.RecordIteration(trace.IterationRecord{Iteration: it, Ticks: s.Clock, Truncated: truncated})
		}
		logrus.Debugf("[tick %07d] iteration %d partial key %s", s.Clock, it, partial)
		s.reset()
		if truncated {
			return newResult(VariantGroup, s.Secret, s.recon, s.Root, s.Trace),
				fmt.Errorf("iteration %d: %w after %d ticks", it, ErrTickBudgetExceeded, s.MaxTicks)
		}
	}
	return newResult(VariantGroup, s.Secret, s.recon, s.Root, s.Trace), nil
}

// runIteration drives the clock until the victim has consumed the key.
// Returns true if the tick budget ran out first.
func (s *GroupScenario) runIteration(it int) bool {
	keyLen := len(s.Secret)
	for s.Clock = 0; ; s.Clock++ {
		if s.Clock > s.MaxTicks {
			logrus.Warnf("[tick %07d] iteration %d exceeded tick budget %d", s.Clock, it, s.MaxTicks)
			return true
		}

		for _, spy := range s.Spies {
			if spy.Wake != s.Clock {
				continue
			}
			hit := spy.Probe()
			s.recordProbe(it, trace.RoleSpy, spy.ID, spy.Line, true, hit)
			spy.AdvanceSpy(hit)
		}

		if s.Victim.Wake == s.Clock {
			if s.Victim.Accesses == keyLen {
				return false
			}
			if s.Secret[s.Victim.Accesses] == recon.One {
				hit := s.Victim.Probe()
				s.recordProbe(it, trace.RoleVictim, s.Victim.ID, s.Victim.Line, true, hit)
			} else {
				s.recordProbe(it, trace.RoleVictim, s.Victim.ID, s.Victim.Line, false, false)
			}
			s.Victim.AdvanceVictim()
		}

		if accessed, line, hit := s.Noise.Step(); accessed {
			s.recordProbe(it, trace.RoleNoise, s.Noise.Core, line, true, hit)
		}
	}
}

func (s *GroupScenario) recordProbe(it int, role trace.Role, id int, line cache.Line, accessed, hit bool) {
	if !s.Trace.Enabled() {
		return
	}
	s.Trace.RecordProbe(trace.ProbeRecord{
		Iteration: it,
		Clock:     s.Clock,
		Role:      role,
		ActorID:   id,
		Line:      int(line),
		Accessed:  accessed,
		Hit:       hit,
	})
}

// reset clears per-iteration state of actors and every level in the tree.
// Lifetime counters of the levels are kept.
func (s *GroupScenario) reset() {
	for _, spy := range s.Spies {
		spy.Reset()
	}
	s.Victim.Reset()
	for _, lv := range s.Root.Tree() {
		lv.Reset()
	}
}
