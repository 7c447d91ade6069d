package testutil

import (
	"fmt"

	"github.com/sharp-sim/sharp-sim/sim/cache"
)

// LowestLinePolicy always evicts the slot holding the smallest line number.
type LowestLinePolicy struct{}

func (LowestLinePolicy) SelectVictim(slots []cache.Slot, _ int) (int, bool) {
	best := 0
	for i, s := range slots {
		if s.Line < slots[best].Line {
			best = i
		}
	}
	return best, false
}

// FixedSlotPolicy always evicts the same slot index.
type FixedSlotPolicy int

func (p FixedSlotPolicy) SelectVictim(_ []cache.Slot, _ int) (int, bool) {
	return int(p), false
}

// ScriptedPolicy replays Slots in order, wrapping around.
type ScriptedPolicy struct {
	Slots []int
	next  int
}

func (p *ScriptedPolicy) SelectVictim(_ []cache.Slot, _ int) (int, bool) {
	s := p.Slots[p.next%len(p.Slots)]
	p.next++
	return s, false
}

// DeterministicPolicy resolves a golden-dataset policy name.
func DeterministicPolicy(name string) cache.EvictionPolicy {
	switch name {
	case "lowest-line":
		return LowestLinePolicy{}
	case "slot-0":
		return FixedSlotPolicy(0)
	default:
		panic(fmt.Sprintf("testutil: unknown deterministic policy %q", name))
	}
}
