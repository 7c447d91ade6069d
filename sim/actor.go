package sim

import (
	"fmt"

	"github.com/sharp-sim/sharp-sim/sim/cache"
)

// Role distinguishes the victim from the spies.
type Role int

const (
	RoleVictim Role = iota
	RoleSpy
)

func (r Role) String() string {
	if r == RoleSpy {
		return "spy"
	}
	return "victim"
}

// ProbeActor is a victim or spy bound to a cache level. It carries its own
// schedule (next wake tick), access count and, for spies, the ordered
// hit/miss history of its probes.
type ProbeActor struct {
	Role     Role
	ID       int // 0-based index among the spy group; 0 for the victim
	Peers    int // spy group size
	Core     int // owning core, used as the ownership tag on loads
	Line     cache.Line
	Interval int64 // victim probe interval T
	Level    *cache.Level

	Wake     int64
	Accesses int
	History  []bool
}

// NewSpy creates spy id of a group of peers spies.
// Panics on an out-of-range id or an interval that would let the spy and
// victim phases collide (interval < peers+1).
func NewSpy(id, peers, core int, line cache.Line, interval int64, level *cache.Level) *ProbeActor {
	if peers <= 0 {
		panic(fmt.Sprintf("ProbeActor: peers must be > 0, got %d", peers))
	}
	if id < 0 || id >= peers {
		panic(fmt.Sprintf("ProbeActor: spy id %d out of range [0, %d)", id, peers))
	}
	checkActor(interval, peers, level)
	return &ProbeActor{
		Role:     RoleSpy,
		ID:       id,
		Peers:    peers,
		Core:     core,
		Line:     line,
		Interval: interval,
		Level:    level,
	}
}

// NewVictim creates the victim that shares a clock with peers spies.
func NewVictim(peers, core int, line cache.Line, interval int64, level *cache.Level) *ProbeActor {
	checkActor(interval, peers, level)
	return &ProbeActor{
		Role:     RoleVictim,
		Peers:    peers,
		Core:     core,
		Line:     line,
		Interval: interval,
		Level:    level,
	}
}

func checkActor(interval int64, peers int, level *cache.Level) {
	if interval < int64(peers)+1 {
		panic(fmt.Sprintf("ProbeActor: interval must be >= peers+1 (%d), got %d", peers+1, interval))
	}
	if level == nil {
		panic("ProbeActor: cache level must not be nil")
	}
}

// Load accesses line through the bound level under the actor's core tag.
func (a *ProbeActor) Load(line cache.Line) bool {
	hit, _ := a.Level.Load(line, a.Core)
	return hit
}

// Probe loads the actor's own line.
func (a *ProbeActor) Probe() bool {
	return a.Load(a.Line)
}

// AdvanceVictim moves the victim one interval ahead. The victim keeps no
// history.
func (a *ProbeActor) AdvanceVictim() {
	a.Wake += a.Interval
	a.Accesses++
}

// AdvanceSpy records hit and moves the spy to its next sweep slot.
func (a *ProbeActor) AdvanceSpy(hit bool) {
	a.History = append(a.History, hit)
	a.Accesses++
	a.Wake += SpyOffset(a.Accesses, a.Interval, a.Peers, a.ID)
}

// Observe records hit without touching the schedule; used by scripted
// scenarios that drive the clock themselves.
func (a *ProbeActor) Observe(hit bool) {
	a.History = append(a.History, hit)
	a.Accesses++
}

// Reset clears the schedule, access count and history.
func (a *ProbeActor) Reset() {
	a.Wake = 0
	a.Accesses = 0
	a.History = nil
}

// SpyOffset returns how far spy id of total spies sleeps after completing its
// k-th probe (k >= 1) with victim interval T. The offsets produce the
// alternating sweep 0..N-1, victim, N-1..0, victim, ... so that every victim
// access is bracketed by spy probes from both directions.
func SpyOffset(k int, interval int64, total, id int) int64 {
	switch {
	case k == 1:
		return interval - int64(id)
	case k%2 == 1:
		return (interval + int64(total-id-1)) - int64(id)
	default:
		return (interval + int64(id)) - int64(total-id-1)
	}
}
