package recon

// CombineSpies derives one iteration's partial key from the hit/miss
// histories of a spy group, histories[spy][probe]. The first probe of every
// spy primes the set, so key position p is read from probe p+1: the sweep
// that follows the victim's p-th scheduled access.
//
// Precedence per position:
//  1. every spy hit: Zero;
//  2. the previous position was all hits and some spy missed: One;
//  3. even probe and spy 0 missed, or odd probe and the last spy missed:
//     One (displacement seen only by the spy that probes first after the
//     victim's access, where the sweep turns around);
//  4. otherwise Unknown.
//
// Positions for which some spy has no probe are Unknown.
func CombineSpies(histories [][]bool, keyLen int) Key {
	key := NewUnknownKey(keyLen)
	n := len(histories)
	prevAll := true
	for p := 0; p < keyLen; p++ {
		probe := p + 1
		observed := n > 0
		allHit := true
		for _, h := range histories {
			if probe >= len(h) {
				observed = false
				break
			}
			allHit = allHit && h[probe]
		}

		switch {
		case !observed:
		case allHit:
			key[p] = Zero
		case prevAll:
			key[p] = One
		case probe%2 == 0 && !histories[0][probe]:
			key[p] = One
		case probe%2 == 1 && !histories[n-1][probe]:
			key[p] = One
		}
		prevAll = observed && allHit
	}
	return key
}

// ClassifyMisses maps the miss count of a cross-core probe round to a bit:
// exactly one displaced line means the victim accessed, none means it did
// not, anything else is inconclusive.
func ClassifyMisses(misses int) Bit {
	switch misses {
	case 0:
		return Zero
	case 1:
		return One
	default:
		return Unknown
	}
}

// Conflict records a later iteration disagreeing with the value already
// chosen for a position.
type Conflict struct {
	Position  int
	Iteration int
	Kept      Bit
	Seen      Bit
}

// Merged is the final key with the conflicts met while merging.
type Merged struct {
	Key       Key
	Conflicts []Conflict
}

// CombineKeys merges partial keys position by position: the first known
// value in iteration order wins; later disagreeing values are conflicts.
// Positions no iteration resolved stay Unknown. Partial keys shorter than
// keyLen contribute nothing past their end.
func CombineKeys(partials []Key, keyLen int) Merged {
	merged := Merged{Key: NewUnknownKey(keyLen)}
	for pos := 0; pos < keyLen; pos++ {
		for it, partial := range partials {
			if pos >= len(partial) || !partial[pos].Known() {
				continue
			}
			switch cur := merged.Key[pos]; {
			case cur == Unknown:
				merged.Key[pos] = partial[pos]
			case cur != partial[pos]:
				merged.Conflicts = append(merged.Conflicts, Conflict{
					Position:  pos,
					Iteration: it,
					Kept:      cur,
					Seen:      partial[pos],
				})
			}
		}
	}
	return merged
}

// Reconstructor accumulates per-iteration partial keys and merges them once
// at the end.
type Reconstructor struct {
	keyLen   int
	partials []Key
}

// NewReconstructor creates a Reconstructor for keys of length keyLen.
func NewReconstructor(keyLen int) *Reconstructor {
	return &Reconstructor{keyLen: keyLen}
}

// AddSpies combines one iteration's spy histories and stores the result.
func (r *Reconstructor) AddSpies(histories [][]bool) Key {
	partial := CombineSpies(histories, r.keyLen)
	r.partials = append(r.partials, partial)
	return partial
}

// Add stores an already formed partial key.
func (r *Reconstructor) Add(partial Key) {
	r.partials = append(r.partials, partial)
}

// Partials returns the stored partial keys in iteration order.
func (r *Reconstructor) Partials() []Key { return r.partials }

// Finalize merges every stored partial key.
func (r *Reconstructor) Finalize() Merged {
	return CombineKeys(r.partials, r.keyLen)
}
