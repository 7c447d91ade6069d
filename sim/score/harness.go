// Package score reads attack outputs back and measures how much of the
// secret they recovered. It understands the simulator's own report, the
// instrumentation harness log and the combined-key log of multi-spy runs.
package score

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// HarnessRun pairs the true secret printed by an instrumented victim with the
// key its spy leaked.
type HarnessRun struct {
	Secret string
	Leaked string
}

// ParseHarnessLog extracts the last "d = <key>" and "Key: <key>" lines of a
// harness log. The leaked key is cut to its trailing len(secret) characters
// and left-padded with '0' to the secret's length, as the harness reports
// only the significant bits it observed.
func ParseHarnessLog(r io.Reader) (HarnessRun, error) {
	var secret, leaked string
	var haveSecret, haveLeaked bool
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "d = "):
			secret, haveSecret = strings.TrimPrefix(line, "d = "), true
		case strings.HasPrefix(line, "Key: "):
			leaked, haveLeaked = strings.TrimPrefix(line, "Key: "), true
		}
	}
	if err := sc.Err(); err != nil {
		return HarnessRun{}, errors.Wrap(err, "reading harness log")
	}
	if !haveSecret {
		return HarnessRun{}, errors.New("harness log has no \"d = \" line")
	}
	if !haveLeaked {
		return HarnessRun{}, errors.New("harness log has no \"Key: \" line")
	}
	return HarnessRun{Secret: secret, Leaked: alignLeaked(leaked, len(secret))}, nil
}

func alignLeaked(leaked string, size int) string {
	if len(leaked) > size {
		leaked = leaked[len(leaked)-size:]
	}
	return strings.Repeat("0", size-len(leaked)) + leaked
}

// CorrectBits counts positions of secret matched by leaked. Positions past the
// end of leaked, and '?' positions, count as incorrect.
func CorrectBits(secret, leaked string) int {
	n := 0
	for i := 0; i < len(secret) && i < len(leaked); i++ {
		if secret[i] == leaked[i] {
			n++
		}
	}
	return n
}
