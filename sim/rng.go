package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a scenario. Equal keys and equal
// configurations give byte-identical reports.
type SimulationKey int64

// NewSimulationKey wraps a --seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemRoot drives the eviction choices of the shared L3 set. It is
	// seeded with the master seed itself, so a flat single-level scenario
	// depends on --seed and nothing else.
	SubsystemRoot = "level_L3"

	// SubsystemNoise drives foreign accesses of the noise core.
	SubsystemNoise = "noise"
)

// SubsystemLevel names the stream of the cache level called name, e.g.
// "level_L2.spy0" for a spy's private level.
func SubsystemLevel(name string) string {
	return "level_" + name
}

// PartitionedRNG hands every cache level and the noise core a stream of its
// own. Turning noise on or giving actors private levels adds streams but
// leaves the L3 draws untouched.
//
// Streams other than the L3 root are seeded with the master seed XORed with
// the FNV-1a hash of the stream name.
//
// Not safe for concurrent use; scenarios run on one goroutine.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates the streams of one scenario lazily.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, creating it on first use. Later
// calls with the same name return the same *rand.Rand.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	seed := int64(p.key)
	if name != SubsystemRoot {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.streams[name] = rng
	return rng
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
