package sim

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sharp-sim/sharp-sim/sim/trace"
)

// DiagnosticMarker prefixes every conflict and mismatch line of a report so
// that downstream tooling can grep for them.
const DiagnosticMarker = "e "

// WriteReport renders a run in the textual report format:
//
//	Key at iteration {i} {partialKey}      one per iteration
//	e conflict in keys ...                 one per merge conflict
//	Spied Key {fullKey}
//	Origi Key {secretKey}
//	Number missed: {count}
//	Number unknown: {count}
//	Number wrong: {count}
//	e mismatch ...                         one per wrong position
//	Forced evictions core {c}: {count}     ownership policy only
//
// With verbose set and a probe trace available, each iteration's key line is
// preceded by its tick-by-tick probe log.
func WriteReport(w io.Writer, res *Result, verbose bool) error {
	bw := bufio.NewWriter(w)
	for i, partial := range res.Partials {
		if verbose && res.Trace.Enabled() {
			writeTicks(bw, res.Trace, i)
		}
		fmt.Fprintf(bw, "Key at iteration %d %s\n", i, partial)
	}
	for _, c := range res.Final.Conflicts {
		fmt.Fprintf(bw, "%sconflict in keys at position %d: iteration %d saw %d, kept %d\n",
			DiagnosticMarker, c.Position, c.Iteration, c.Seen, c.Kept)
	}
	fmt.Fprintf(bw, "Spied Key %s\n", res.Final.Key)
	fmt.Fprintf(bw, "Origi Key %s\n", res.Secret)
	d := res.Diagnostics
	fmt.Fprintf(bw, "Number missed: %d\n", d.Missed())
	fmt.Fprintf(bw, "Number unknown: %d\n", d.Unknown)
	fmt.Fprintf(bw, "Number wrong: %d\n", d.Wrong)
	for _, pos := range d.Mismatches {
		fmt.Fprintf(bw, "%smismatch at position %d: spied %d, secret %d\n",
			DiagnosticMarker, pos, res.Final.Key[pos], res.Secret[pos])
	}
	for _, fc := range res.ForcedEvictions {
		fmt.Fprintf(bw, "Forced evictions core %d: %d\n", fc.Core, fc.Count)
	}
	return bw.Flush()
}

// writeTicks prints the probe and targeted-eviction records of one
// iteration merged in clock order, probes first within a tick.
func writeTicks(w io.Writer, st *trace.SimulationTrace, iteration int) {
	probes := st.ProbesIn(iteration)
	var evictions []trace.EvictionRecord
	for _, e := range st.Evictions {
		if e.Iteration == iteration {
			evictions = append(evictions, e)
		}
	}

	clock := int64(-1)
	tick := func(c int64) {
		if c != clock {
			clock = c
			fmt.Fprintf(w, "Clock %d\n", c)
		}
	}
	pi, ei := 0, 0
	for pi < len(probes) || ei < len(evictions) {
		if ei >= len(evictions) || (pi < len(probes) && probes[pi].Clock <= evictions[ei].Clock) {
			p := probes[pi]
			pi++
			tick(p.Clock)
			switch p.Role {
			case trace.RoleSpy:
				fmt.Fprintf(w, "SPY %d Hit: %s\n", p.ActorID, pyBool(p.Hit))
			case trace.RoleVictim:
				if p.Accessed {
					fmt.Fprintf(w, "Victim exp  Hit: %s\n", pyBool(p.Hit))
				} else {
					fmt.Fprintln(w, "Victim Noexp")
				}
			case trace.RoleNoise:
				fmt.Fprintf(w, "Noise line %d Hit: %s\n", p.Line, pyBool(p.Hit))
			}
			continue
		}
		e := evictions[ei]
		ei++
		tick(e.Clock)
		fmt.Fprintf(w, "SPY %d Evict line %d Removed: %s\n", e.ActorID, e.Line, pyBool(e.Removed))
	}
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
