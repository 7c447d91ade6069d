package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharp-sim/sharp-sim/sim/cache"
	"github.com/sharp-sim/sharp-sim/sim/internal/testutil"
	"github.com/sharp-sim/sharp-sim/sim/recon"
	"github.com/sharp-sim/sharp-sim/sim/trace"
)

func crossCoreConfig(policy string) ScenarioConfig {
	cfg := DefaultScenarioConfig()
	cfg.Variant = VariantCrossCore
	cfg.Policy = policy
	return cfg
}

func TestCrossCoreScenario_NoiselessRecoversKey(t *testing.T) {
	for _, policy := range []string{cache.PolicyRandom, cache.PolicyOwnership} {
		t.Run(policy, func(t *testing.T) {
			// GIVEN a noiseless cross-core run
			s, err := Build(crossCoreConfig(policy))
			require.NoError(t, err)

			// WHEN it runs
			res, err := s.Run()
			require.NoError(t, err)

			// THEN every partial key equals the secret
			require.Len(t, res.Partials, 5)
			for i, p := range res.Partials {
				assert.Equal(t, res.Secret, p, "iteration %d", i)
			}
			assert.Equal(t, res.Secret, res.Final.Key)
			assert.Empty(t, res.Final.Conflicts)
			assert.Zero(t, res.Diagnostics.Missed())
		})
	}
}

func TestCrossCoreScenario_MissCountsPerPosition(t *testing.T) {
	s, err := Build(crossCoreConfig(cache.PolicyRandom))
	require.NoError(t, err)
	cc := s.(*CrossCoreScenario)

	partial := cc.runIteration(0)

	// THEN one miss for every 1 bit and none for every 0 bit
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, cc.Misses)
	assert.Equal(t, recon.Key{0, 1, 0, 1, 0, 1}, partial)
	assert.Equal(t, int64(6*crossCorePhases), cc.Clock)
}

func TestCrossCoreScenario_OwnershipCountsVictimEvictions(t *testing.T) {
	// GIVEN the victim core owns no line of the shared set when it loads
	s, err := Build(crossCoreConfig(cache.PolicyOwnership))
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)

	// THEN each 1 bit of each iteration forced one eviction on core 1
	require.Len(t, res.ForcedEvictions, 1)
	assert.Equal(t, CoreCount{Core: 1, Count: 3 * 5}, res.ForcedEvictions[0])
}

func TestCrossCoreScenario_TraceRecordsRounds(t *testing.T) {
	cfg := crossCoreConfig(cache.PolicyRandom)
	cfg.Iterations = 2
	cfg.Trace = string(trace.TraceLevelProbes)
	s, err := Build(cfg)
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)

	st := res.Trace
	require.NotNil(t, st)
	assert.Len(t, st.Rounds, 2*6)
	assert.Len(t, st.Evictions, 2*6)
	assert.Len(t, st.Iterations, 2)
	for _, r := range st.Rounds {
		assert.Equal(t, int(res.Secret[r.Position]), r.Bit)
	}
	// B only removes the target after the victim loaded it
	for _, e := range st.Evictions {
		assert.Equal(t, res.Secret[e.Clock/crossCorePhases] == recon.One, e.Removed, "clock %d", e.Clock)
	}
}

func TestNewCrossCoreScenario_Preconditions(t *testing.T) {
	root := newTestLevel(4)
	a := NewSpy(0, 2, 0, 0, crossCorePhases, root)
	b := NewSpy(1, 2, 1, 4, crossCorePhases, root)
	sameCore := NewSpy(1, 2, 0, 4, crossCorePhases, root)
	victim := NewVictim(2, 1, 4, crossCorePhases, root)
	prime := []cache.Line{0, 1, 2, 3}

	assert.PanicsWithValue(t, "CrossCoreScenario: spies must be pinned to different cores, both on 0", func() {
		NewCrossCoreScenario(recon.Key{1}, 1, root, a, sameCore, victim, prime, 4)
	})
	assert.PanicsWithValue(t, "CrossCoreScenario: target line 3 is part of the prime set", func() {
		NewCrossCoreScenario(recon.Key{1}, 1, root, a, b, victim, prime, 3)
	})
	assert.PanicsWithValue(t, "CrossCoreScenario: prime set must not be empty", func() {
		NewCrossCoreScenario(recon.Key{1}, 1, root, a, b, victim, nil, 4)
	})
}

func TestCrossCoreScenario_AnyRootVictimChoiceRecoversKey(t *testing.T) {
	// GIVEN a root that evicts slots in a scripted order
	root := cache.NewLevel("L3", 4, &testutil.ScriptedPolicy{Slots: []int{3, 1, 2, 0}}, nil)
	levelA := cache.NewLevel("L2.core0", 4, testutil.FixedSlotPolicy(0), root)
	levelB := cache.NewLevel("L2.core1", 4, testutil.FixedSlotPolicy(0), root)
	spyA := NewSpy(0, 2, 0, 0, crossCorePhases, levelA)
	spyB := NewSpy(1, 2, 1, 4, crossCorePhases, levelB)
	victim := NewVictim(2, 1, 4, crossCorePhases, levelB)
	secret := recon.Key{1, 1, 0, 1, 0, 0, 1}

	s := NewCrossCoreScenario(secret, 2, root, spyA, spyB, victim, []cache.Line{0, 1, 2, 3}, 4)
	res, err := s.Run()
	require.NoError(t, err)

	// THEN whichever prime line the victim displaces, exactly one misses
	assert.Equal(t, secret, res.Final.Key)
	assert.Equal(t, []int{1, 1, 0, 1, 0, 0, 1}, s.Misses)
	require.NoError(t, root.VerifyInclusion())
}
