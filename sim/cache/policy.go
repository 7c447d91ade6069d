package cache

import (
	"fmt"
	"math/rand"
)

// EvictionPolicy picks the slot to overwrite when a full level misses.
// forced reports that the choice displaced another core's line although the
// policy tried to avoid it; the level counts these per requesting core.
type EvictionPolicy interface {
	SelectVictim(slots []Slot, ownerCore int) (slot int, forced bool)
}

const (
	// PolicyRandom evicts a uniformly random slot.
	PolicyRandom = "random"
	// PolicyOwnership prefers slots owned by the requesting core.
	PolicyOwnership = "ownership"
)

// ValidPolicies is the set of recognized eviction policy names.
// An empty string selects the random policy.
var ValidPolicies = map[string]bool{"": true, PolicyRandom: true, PolicyOwnership: true}

// IsValidPolicy reports whether name is a recognized eviction policy.
func IsValidPolicy(name string) bool {
	return ValidPolicies[name]
}

// NewPolicy creates an eviction policy by name, drawing slot choices from rng.
// Panics on unrecognized names.
func NewPolicy(name string, rng *rand.Rand) EvictionPolicy {
	if !IsValidPolicy(name) {
		panic(fmt.Sprintf("unknown eviction policy %q", name))
	}
	switch name {
	case "", PolicyRandom:
		return NewRandomPolicy(rng)
	case PolicyOwnership:
		return NewOwnershipPolicy(rng)
	default:
		panic(fmt.Sprintf("unhandled eviction policy %q", name))
	}
}

// RandomPolicy ignores ownership and recency.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy creates a random eviction policy.
func NewRandomPolicy(rng *rand.Rand) *RandomPolicy {
	return &RandomPolicy{rng: rng}
}

// SelectVictim returns a uniformly random slot.
func (p *RandomPolicy) SelectVictim(slots []Slot, _ int) (int, bool) {
	return p.rng.Intn(len(slots)), false
}

// OwnershipPolicy evicts the first slot owned by the requesting core, so a
// context only ever displaces its own lines. When the requester owns nothing
// in the set it falls back to a random slot and reports the eviction as
// forced: this residual cross-context eviction is the signature the policy
// cannot suppress.
type OwnershipPolicy struct {
	rng *rand.Rand
}

// NewOwnershipPolicy creates an ownership-aware eviction policy.
func NewOwnershipPolicy(rng *rand.Rand) *OwnershipPolicy {
	return &OwnershipPolicy{rng: rng}
}

// SelectVictim implements EvictionPolicy.
func (p *OwnershipPolicy) SelectVictim(slots []Slot, ownerCore int) (int, bool) {
	for i, s := range slots {
		if s.Owner == ownerCore {
			return i, false
		}
	}
	return p.rng.Intn(len(slots)), true
}
