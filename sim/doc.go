// Package sim provides the deterministic Prime+Probe attack simulator.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - actor.go: ProbeActor (victim or spy), its wake schedule and the sweep offsets
//   - scenario.go: GroupScenario, the tick loop interleaving spies and the victim
//   - crosscore.go: CrossCoreScenario, the scripted prime/access/evict/probe rounds
//
// # Architecture
//
// The sim package composes scenarios; the building blocks live in
// sub-packages:
//   - sim/cache/: the single modeled set of an inclusive cache hierarchy and its eviction policies
//   - sim/recon/: key reconstruction from hit/miss histories and partial keys
//   - sim/trace/: probe-level event recording
//   - sim/score/: parsers and scorers for reports and instrumentation logs
//   - sim/record/: SQLite storage of sweep results
//
// # Determinism
//
// A run is a pure function of its ScenarioConfig. The only randomness is the
// eviction policies' slot choice and optional noise, both drawn from a
// PartitionedRNG keyed by the configured seed. There is one clock and no
// goroutines: due spies always act before a due victim within a tick.
package sim
