// Package cache models the single shared set of a multi-level inclusive cache
// with pluggable eviction policies.
package cache

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Line identifies a cache-line position within the single modeled set.
type Line int

// NoLine marks an empty slot or the absence of an evicted line.
const NoLine Line = -1

// NoOwner marks a slot that no core has claimed.
const NoOwner = -1

// Slot is one way of the modeled set.
type Slot struct {
	Line  Line
	Owner int
}

// Empty reports whether the slot holds no line.
func (s Slot) Empty() bool { return s.Line == NoLine }

// Level models one set-associative cache level restricted to the single set
// shared by victim and spies. Levels form a tree: a nil outer level marks the
// root, and a level may be shared by several children.
//
// State is split in two bands:
//   - occupancy (slots, ownership, fullness) is cleared by Reset between iterations;
//   - lifetime (forced foreign eviction counters) accumulates for as long as the
//     Level exists and is never cleared by Reset.
//
// Inclusivity: every line resident in a child is resident in every ancestor.
// Loads fill outer levels first; an eviction or invalidation at any level is
// propagated to all descendants.
type Level struct {
	name     string
	policy   EvictionPolicy
	outer    *Level
	children []*Level

	// occupancy band
	slots []Slot
	full  bool

	// lifetime band
	forced map[int]int64
}

// NewLevel creates an empty level with the given capacity and eviction policy,
// attached below outer (nil for the root).
// Panics if capacity is not positive or policy is nil.
func NewLevel(name string, capacity int, policy EvictionPolicy, outer *Level) *Level {
	if capacity <= 0 {
		panic(fmt.Sprintf("CacheLevel: capacity must be > 0, got %d", capacity))
	}
	if policy == nil {
		panic("CacheLevel: eviction policy must not be nil")
	}
	l := &Level{
		name:   name,
		policy: policy,
		outer:  outer,
		slots:  make([]Slot, capacity),
		forced: make(map[int]int64),
	}
	l.clearSlots()
	if outer != nil {
		outer.children = append(outer.children, l)
	}
	return l
}

// Load accesses line on behalf of ownerCore.
//
// On a hit nothing changes. On a miss the outer level is loaded first and its
// hit flag becomes the returned hit flag; the line is then placed in the first
// empty slot, or, when the level is full, in the slot chosen by the eviction
// policy. evicted is the line displaced from this level, or NoLine.
func (l *Level) Load(line Line, ownerCore int) (hit bool, evicted Line) {
	if l.indexOf(line) >= 0 {
		return true, NoLine
	}

	if l.outer != nil {
		// An eviction reported by the outer level has already been
		// back-invalidated in this level through the children links.
		hit, _ = l.outer.Load(line, ownerCore)
	}

	if !l.full {
		i := l.firstEmpty()
		l.slots[i] = Slot{Line: line, Owner: ownerCore}
		l.full = l.firstEmpty() < 0
		return hit, NoLine
	}

	i, forced := l.policy.SelectVictim(l.slots, ownerCore)
	if i < 0 || i >= len(l.slots) {
		panic(fmt.Sprintf("CacheLevel %s: eviction policy chose slot %d of %d", l.name, i, len(l.slots)))
	}
	evicted = l.slots[i].Line
	if forced {
		l.forced[ownerCore]++
		logrus.Debugf("%s: core %d forced foreign eviction of line %d (owner %d)",
			l.name, ownerCore, evicted, l.slots[i].Owner)
	}
	l.slots[i] = Slot{Line: line, Owner: ownerCore}
	for _, c := range l.children {
		c.invalidate(evicted)
	}
	return hit, evicted
}

// EvictSelected removes line from this level and every outer level, and from
// every level below those. It models a targeted eviction set displacing a
// known line. Reports whether the line was resident anywhere on the path.
func (l *Level) EvictSelected(line Line) bool {
	removed := l.invalidate(line)
	if l.outer != nil {
		removed = l.outer.EvictSelected(line) || removed
	}
	return removed
}

// invalidate drops line here and in all descendants.
func (l *Level) invalidate(line Line) bool {
	removed := false
	if i := l.indexOf(line); i >= 0 {
		l.slots[i] = Slot{Line: NoLine, Owner: NoOwner}
		l.full = false
		removed = true
	}
	for _, c := range l.children {
		c.invalidate(line)
	}
	return removed
}

// Reset clears occupancy, ownership and fullness. Forced eviction counters
// are kept.
func (l *Level) Reset() {
	l.clearSlots()
}

func (l *Level) clearSlots() {
	for i := range l.slots {
		l.slots[i] = Slot{Line: NoLine, Owner: NoOwner}
	}
	l.full = false
}

func (l *Level) indexOf(line Line) int {
	for i, s := range l.slots {
		if s.Line == line {
			return i
		}
	}
	return -1
}

func (l *Level) firstEmpty() int {
	return l.indexOf(NoLine)
}

// Name returns the level's label.
func (l *Level) Name() string { return l.name }

// Capacity returns the number of slots.
func (l *Level) Capacity() int { return len(l.slots) }

// Full reports whether every slot is occupied.
func (l *Level) Full() bool { return l.full }

// Outer returns the next outer level, nil at the root.
func (l *Level) Outer() *Level { return l.outer }

// Children returns the levels directly below this one.
func (l *Level) Children() []*Level { return l.children }

// Contains reports whether line is resident.
func (l *Level) Contains(line Line) bool { return l.indexOf(line) >= 0 }

// Slots returns a copy of the slot array.
func (l *Level) Slots() []Slot {
	out := make([]Slot, len(l.slots))
	copy(out, l.slots)
	return out
}

// Lines returns the resident lines in slot order.
func (l *Level) Lines() []Line {
	lines := make([]Line, 0, len(l.slots))
	for _, s := range l.slots {
		if !s.Empty() {
			lines = append(lines, s.Line)
		}
	}
	return lines
}

// ForcedEvictions returns the lifetime count of foreign evictions core was forced into.
func (l *Level) ForcedEvictions(core int) int64 { return l.forced[core] }

// ForcedEvictionCores returns the cores with a non-zero forced eviction count, ascending.
func (l *Level) ForcedEvictionCores() []int {
	cores := make([]int, 0, len(l.forced))
	for c, n := range l.forced {
		if n > 0 {
			cores = append(cores, c)
		}
	}
	sort.Ints(cores)
	return cores
}

// Tree returns this level followed by all its descendants, depth-first.
func (l *Level) Tree() []*Level {
	out := []*Level{l}
	for _, c := range l.children {
		out = append(out, c.Tree()...)
	}
	return out
}

// VerifyInclusion checks that every line resident in a level of the tree
// rooted at l is also resident in each of its ancestors.
func (l *Level) VerifyInclusion() error {
	for _, lv := range l.Tree() {
		for _, line := range lv.Lines() {
			for a := lv.outer; a != nil; a = a.outer {
				if !a.Contains(line) {
					return fmt.Errorf("line %d resident in %s but missing from ancestor %s", line, lv.name, a.name)
				}
			}
		}
	}
	return nil
}
