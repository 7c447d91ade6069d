package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharp-sim/sharp-sim/sim/recon"
	"github.com/sharp-sim/sharp-sim/sim/trace"
)

func TestWriteReport_Format(t *testing.T) {
	secret := recon.Key{0, 1, 0, 1}
	r := recon.NewReconstructor(4)
	r.Add(recon.Key{0, 1, recon.Unknown, 0})
	r.Add(recon.Key{1, 1, recon.Unknown, 0})
	final := r.Finalize()
	res := &Result{
		Variant:         VariantGroup,
		Secret:          secret,
		Partials:        r.Partials(),
		Final:           final,
		Diagnostics:     recon.Diagnose(final.Key, secret),
		ForcedEvictions: []CoreCount{{Core: 0, Count: 3}, {Core: 2, Count: 1}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res, false))

	want := strings.Join([]string{
		"Key at iteration 0 [0, 1, -1, 0]",
		"Key at iteration 1 [1, 1, -1, 0]",
		"e conflict in keys at position 0: iteration 1 saw 1, kept 0",
		"Spied Key [0, 1, -1, 0]",
		"Origi Key [0, 1, 0, 1]",
		"Number missed: 2",
		"Number unknown: 1",
		"Number wrong: 1",
		"e mismatch at position 3: spied 0, secret 1",
		"Forced evictions core 0: 3",
		"Forced evictions core 2: 1",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteReport_VerboseTicks(t *testing.T) {
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelProbes})
	st.RecordProbe(trace.ProbeRecord{Iteration: 0, Clock: 0, Role: trace.RoleSpy, ActorID: 0, Line: 0, Accessed: true, Hit: false})
	st.RecordProbe(trace.ProbeRecord{Iteration: 0, Clock: 0, Role: trace.RoleVictim, Line: 4, Accessed: false})
	st.RecordEviction(trace.EvictionRecord{Iteration: 0, Clock: 1, ActorID: 1, Line: 4, Removed: true})
	st.RecordProbe(trace.ProbeRecord{Iteration: 0, Clock: 2, Role: trace.RoleVictim, Line: 4, Accessed: true, Hit: true})
	st.RecordProbe(trace.ProbeRecord{Iteration: 0, Clock: 2, Role: trace.RoleNoise, ActorID: 5, Line: 9, Accessed: true, Hit: false})
	st.RecordProbe(trace.ProbeRecord{Iteration: 1, Clock: 0, Role: trace.RoleSpy, ActorID: 0, Line: 0, Accessed: true, Hit: true})

	res := &Result{
		Secret:   recon.Key{1},
		Partials: []recon.Key{{1}, {1}},
		Final:    recon.Merged{Key: recon.Key{1}},
		Trace:    st,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res, true))

	want := strings.Join([]string{
		"Clock 0",
		"SPY 0 Hit: False",
		"Victim Noexp",
		"Clock 1",
		"SPY 1 Evict line 4 Removed: True",
		"Clock 2",
		"Victim exp  Hit: True",
		"Noise line 9 Hit: False",
		"Key at iteration 0 [1]",
		"Clock 0",
		"SPY 0 Hit: True",
		"Key at iteration 1 [1]",
		"Spied Key [1]",
		"Origi Key [1]",
		"Number missed: 0",
		"Number unknown: 0",
		"Number wrong: 0",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteReport_VerboseWithoutTraceOmitsTicks(t *testing.T) {
	res := &Result{
		Secret:   recon.Key{0},
		Partials: []recon.Key{{0}},
		Final:    recon.Merged{Key: recon.Key{0}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res, true))
	assert.NotContains(t, buf.String(), "Clock")
}
