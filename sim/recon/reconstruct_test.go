package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hm builds a probe history from a string of 'H' (hit) and 'M' (miss).
func hm(s string) []bool {
	out := make([]bool, len(s))
	for i, c := range s {
		out[i] = c == 'H'
	}
	return out
}

func TestCombineSpies_AllHit_YieldsZeros(t *testing.T) {
	histories := [][]bool{hm("MHHHH"), hm("MHHHH"), hm("MHHHH")}
	assert.Equal(t, Key{0, 0, 0, 0}, CombineSpies(histories, 4))
}

func TestCombineSpies_MissAfterAllHit_YieldsOne(t *testing.T) {
	histories := [][]bool{hm("MHMH"), hm("MHHH"), hm("MHHH")}
	assert.Equal(t, Key{0, 1, 0}, CombineSpies(histories, 3))
}

func TestCombineSpies_TurnaroundRule(t *testing.T) {
	// Position 1 breaks the all-hit run, so later positions rely on the
	// turnaround rule: probe 3 sweeps N-1..0 after the victim, so only the
	// last spy counts there; probe 4 sweeps 0..N-1, so only spy 0 counts.
	histories := [][]bool{
		hm("M" + "H" + "M" + "H" + "M" + "M"),
		hm("M" + "H" + "H" + "H" + "H" + "H"),
		hm("M" + "H" + "H" + "M" + "H" + "H"),
	}
	got := CombineSpies(histories, 5)
	// p0 all hit; p1 prev all hit; p2 last spy missed on odd probe 3;
	// p3 spy 0 missed on even probe 4; p4 spy 0 missed on odd probe 5.
	assert.Equal(t, Key{0, 1, 1, 1, Unknown}, got)
}

func TestCombineSpies_ParityFollowsHistoryIndex(t *testing.T) {
	tests := []struct {
		name      string
		histories [][]bool
		keyLen    int
		want      Key
	}{
		{
			// GIVEN position 1 read from probe 2 where only spy 0 missed
			name:      "spy 0 miss on even history entry",
			histories: [][]bool{hm("MHM"), hm("MMH"), hm("MHH")},
			keyLen:    2,
			want:      Key{1, 1},
		},
		{
			// GIVEN position 2 read from probe 3 where only spy 0 missed
			name:      "spy 0 miss on odd history entry",
			histories: [][]bool{hm("MHMM"), hm("MHHH"), hm("MHHH")},
			keyLen:    3,
			want:      Key{0, 1, Unknown},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CombineSpies(tt.histories, tt.keyLen))
		})
	}
}

func TestCombineSpies_ShortHistory_IsUnknown(t *testing.T) {
	histories := [][]bool{hm("MHH"), hm("MH")}
	got := CombineSpies(histories, 3)
	assert.Equal(t, Key{0, Unknown, Unknown}, got)
}

func TestCombineSpies_NoSpies_AllUnknown(t *testing.T) {
	assert.Equal(t, NewUnknownKey(2), CombineSpies(nil, 2))
}

func TestCombineKeys_FillsUnknownsWithoutConflict(t *testing.T) {
	m := CombineKeys([]Key{{1, Unknown, 0}, {Unknown, 1, 0}}, 3)
	assert.Equal(t, Key{1, 1, 0}, m.Key)
	assert.Empty(t, m.Conflicts)
}

func TestCombineKeys_EarliestValueWinsOnConflict(t *testing.T) {
	m := CombineKeys([]Key{{1, Unknown}, {0, Unknown}}, 2)
	assert.Equal(t, Key{1, Unknown}, m.Key)
	require.Len(t, m.Conflicts, 1)
	assert.Equal(t, Conflict{Position: 0, Iteration: 1, Kept: One, Seen: Zero}, m.Conflicts[0])
}

func TestCombineKeys_NoPartials(t *testing.T) {
	m := CombineKeys(nil, 3)
	assert.Equal(t, NewUnknownKey(3), m.Key)
}

func TestReconstructor_AccumulatesAndFinalizes(t *testing.T) {
	r := NewReconstructor(2)
	p := r.AddSpies([][]bool{hm("MHM"), hm("MHH")})
	assert.Equal(t, Key{0, 1}, p)
	r.Add(Key{1, 1})

	assert.Len(t, r.Partials(), 2)
	m := r.Finalize()
	assert.Equal(t, Key{0, 1}, m.Key)
	assert.Len(t, m.Conflicts, 1)
}

func TestClassifyMisses(t *testing.T) {
	tests := []struct {
		misses int
		want   Bit
	}{
		{0, Zero},
		{1, One},
		{2, Unknown},
		{4, Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyMisses(tt.misses), "misses=%d", tt.misses)
	}
}

func TestDiagnose_SeparatesUnknownFromWrong(t *testing.T) {
	d := Diagnose(Key{0, 1, 1, Unknown, 1, Unknown}, Key{0, 1, 0, 1, 0, 1})
	assert.Equal(t, 2, d.Correct)
	assert.Equal(t, 2, d.Unknown)
	assert.Equal(t, 2, d.Wrong)
	assert.Equal(t, []int{2, 4}, d.Mismatches)
	assert.Equal(t, 4, d.Missed())
}

func TestDiagnose_ShortSpiedKey(t *testing.T) {
	d := Diagnose(Key{1}, Key{1, 0})
	assert.Equal(t, 1, d.Correct)
	assert.Equal(t, 1, d.Unknown)
}
