package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sharp-sim/sharp-sim/sim/cache"
	"github.com/sharp-sim/sharp-sim/sim/recon"
	"github.com/sharp-sim/sharp-sim/sim/trace"
)

// crossCorePhases is the number of ticks one key position takes:
// prime, victim, targeted eviction, probe.
const crossCorePhases = 4

// CrossCoreScenario leaks one bit per victim access through a root level
// shared by two cores. For every key position:
//
//	tick 4p+0  spy A loads every prime line, claiming the whole set;
//	tick 4p+1  the victim loads Target if the bit is 1;
//	tick 4p+2  spy B evicts Target through its own level;
//	tick 4p+3  spy A reloads the prime lines and counts misses.
//
// One miss means the victim displaced one of A's lines, none means it did
// not access, any other count is inconclusive.
type CrossCoreScenario struct {
	Secret     recon.Key
	Iterations int
	Root       *cache.Level
	SpyA       *ProbeActor
	SpyB       *ProbeActor
	Victim     *ProbeActor
	PrimeLines []cache.Line
	Target     cache.Line
	Noise      *NoiseSource
	Trace      *trace.SimulationTrace
	Clock      int64

	// Misses holds spy A's miss count per position of the last iteration.
	Misses []int

	recon *recon.Reconstructor
}

// NewCrossCoreScenario wires the two spies and the victim. spyA and spyB must
// sit on different cores; Target must not be one of the prime lines.
func NewCrossCoreScenario(secret recon.Key, iterations int, root *cache.Level, spyA, spyB, victim *ProbeActor, prime []cache.Line, target cache.Line) *CrossCoreScenario {
	checkScenario(secret, iterations, root)
	if spyA == nil || spyB == nil || victim == nil {
		panic("CrossCoreScenario: spies and victim must not be nil")
	}
	if spyA.Core == spyB.Core {
		panic(fmt.Sprintf("CrossCoreScenario: spies must be pinned to different cores, both on %d", spyA.Core))
	}
	if len(prime) == 0 {
		panic("CrossCoreScenario: prime set must not be empty")
	}
	for _, l := range prime {
		if l == target {
			panic(fmt.Sprintf("CrossCoreScenario: target line %d is part of the prime set", target))
		}
	}
	return &CrossCoreScenario{
		Secret:     secret,
		Iterations: iterations,
		Root:       root,
		SpyA:       spyA,
		SpyB:       spyB,
		Victim:     victim,
		PrimeLines: prime,
		Target:     target,
		recon:      recon.NewReconstructor(len(secret)),
	}
}

// Run executes every iteration and merges the partial keys.
func (s *CrossCoreScenario) Run() (*Result, error) {
	for it := 0; it < s.Iterations; it++ {
		partial := s.runIteration(it)
		s.recon.Add(partial)
		if s.Trace.Enabled() {
			s.Trace.RecordIteration(trace.IterationRecord{Iteration: it, Ticks: s.Clock})
		}
		logrus.Debugf("[tick %07d] iteration %d partial key %s", s.Clock, it, partial)
		s.reset()
	}
	return newResult(VariantCrossCore, s.Secret, s.recon, s.Root, s.Trace), nil
}

func (s *CrossCoreScenario) runIteration(it int) recon.Key {
	partial := recon.NewUnknownKey(len(s.Secret))
	s.Misses = make([]int, len(s.Secret))
	s.Clock = 0
	for pos, bit := range s.Secret {
		base := int64(pos) * crossCorePhases

		s.Clock = base
		for _, l := range s.PrimeLines {
			hit := s.SpyA.Load(l)
			s.recordProbe(it, trace.RoleSpy, s.SpyA.ID, l, true, hit)
		}

		s.Clock = base + 1
		if bit == recon.One {
			hit := s.Victim.Probe()
			s.recordProbe(it, trace.RoleVictim, s.Victim.ID, s.Victim.Line, true, hit)
		} else {
			s.recordProbe(it, trace.RoleVictim, s.Victim.ID, s.Victim.Line, false, false)
		}
		s.Victim.AdvanceVictim()
		if accessed, line, hit := s.Noise.Step(); accessed {
			s.recordProbe(it, trace.RoleNoise, s.Noise.Core, line, true, hit)
		}

		s.Clock = base + 2
		removed := s.SpyB.Level.EvictSelected(s.Target)
		s.SpyB.Accesses++
		if s.Trace.Enabled() {
			s.Trace.RecordEviction(trace.EvictionRecord{
				Iteration: it,
				Clock:     s.Clock,
				ActorID:   s.SpyB.ID,
				Line:      int(s.Target),
				Removed:   removed,
			})
		}

		s.Clock = base + 3
		misses := 0
		for _, l := range s.PrimeLines {
			hit := s.SpyA.Load(l)
			s.SpyA.Observe(hit)
			s.recordProbe(it, trace.RoleSpy, s.SpyA.ID, l, true, hit)
			if !hit {
				misses++
			}
		}
		s.Misses[pos] = misses
		partial[pos] = recon.ClassifyMisses(misses)
		if s.Trace.Enabled() {
			s.Trace.RecordRound(trace.RoundRecord{Iteration: it, Position: pos, Misses: misses, Bit: int(partial[pos])})
		}
		if partial[pos] == recon.Unknown {
			logrus.Debugf("[tick %07d] position %d inconclusive: %d misses", s.Clock, pos, misses)
		}
	}
	s.Clock = int64(len(s.Secret)) * crossCorePhases
	return partial
}

func (s *CrossCoreScenario) recordProbe(it int, role trace.Role, id int, line cache.Line, accessed, hit bool) {
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

func (s *CrossCoreScenario) reset() {
	s.SpyA.Reset()
	s.SpyB.Reset()
	s.Victim.Reset()
	for _, lv := range s.Root.Tree() {
		lv.Reset()
	}
}
