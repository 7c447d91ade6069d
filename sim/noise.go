package sim

import (
	"fmt"
	"math/rand"

	"github.com/sharp-sim/sharp-sim/sim/cache"
)

// NoiseSource injects foreign accesses from an unrelated context into a
// shared level. Each Step fires with probability Percent/100 and loads a
// random line from a pool disjoint from every actor line.
type NoiseSource struct {
	Percent int
	Core    int
	Level   *cache.Level
	base    cache.Line
	pool    int
	rng     *rand.Rand
}

// NewNoiseSource creates a noise source drawing lines from [base, base+pool).
// Panics if percent is outside [0, 100] or pool is not positive.
func NewNoiseSource(percent, core int, base cache.Line, pool int, level *cache.Level, rng *rand.Rand) *NoiseSource {
	if percent < 0 || percent > 100 {
		panic(fmt.Sprintf("NoiseSource: percent must be in [0, 100], got %d", percent))
	}
	if pool <= 0 {
		panic(fmt.Sprintf("NoiseSource: pool must be > 0, got %d", pool))
	}
	return &NoiseSource{
		Percent: percent,
		Core:    core,
		Level:   level,
		base:    base,
		pool:    pool,
		rng:     rng,
	}
}

// Step maybe performs one foreign access. A nil or silent source draws no
// random numbers, so noiseless runs are unaffected by its presence.
func (n *NoiseSource) Step() (accessed bool, line cache.Line, hit bool) {
	if n == nil || n.Percent == 0 {
		return false, cache.NoLine, false
	}
	if n.rng.Intn(100) >= n.Percent {
		return false, cache.NoLine, false
	}
	line = n.base + cache.Line(n.rng.Intn(n.pool))
	hit, _ = n.Level.Load(line, n.Core)
	return true, line, hit
}
