// Package trace provides probe-level event recording for attack scenarios.
// This package has no dependencies on sim/ or sim/cache/; it stores pure data types.
package trace

// Role labels who issued a probe.
type Role string

const (
	RoleSpy    Role = "spy"
	RoleVictim Role = "victim"
	RoleNoise  Role = "noise"
)

// ProbeRecord captures a single scheduled access.
type ProbeRecord struct {
	Iteration int
	Clock     int64
	Role      Role
	ActorID   int
	Line      int
	Accessed  bool // false for a victim step on a 0 bit (no memory access)
	Hit       bool
}

// EvictionRecord captures a targeted eviction of a known line.
type EvictionRecord struct {
	Iteration int
	Clock     int64
	ActorID   int
	Line      int
	Removed   bool // whether the line was resident anywhere on the evicting path
}

// RoundRecord captures one cross-core probe round for a key position.
type RoundRecord struct {
	Iteration int
	Position  int
	Misses    int
	Bit       int // 0, 1 or -1
}

// IterationRecord captures the end of one pass over the secret key.
type IterationRecord struct {
	Iteration int
	Ticks     int64
	Truncated bool // tick budget ran out before the victim consumed the key
}
