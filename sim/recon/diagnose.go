package recon

// Diagnostics compares a reconstructed key with the true secret. Unknown
// positions are partial information and are counted apart from Wrong
// positions, which are reconstruction errors.
type Diagnostics struct {
	Correct    int
	Unknown    int
	Wrong      int
	Mismatches []int // positions where a known bit disagrees with the secret
}

// Missed is the number of positions not recovered correctly.
func (d Diagnostics) Missed() int { return d.Unknown + d.Wrong }

// Diagnose scores spied against secret. Positions beyond the end of spied
// count as unknown.
func Diagnose(spied, secret Key) Diagnostics {
	var d Diagnostics
	for i, want := range secret {
		got := Unknown
		if i < len(spied) {
			got = spied[i]
		}
		switch {
		case !got.Known():
			d.Unknown++
		case got == want:
			d.Correct++
		default:
			d.Wrong++
			d.Mismatches = append(d.Mismatches, i)
		}
	}
	return d
}
