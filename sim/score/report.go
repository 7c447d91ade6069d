package score

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/sharp-sim/sharp-sim/sim/recon"
)

const (
	spiedPrefix  = "Spied Key "
	secretPrefix = "Origi Key "
)

// Report is the outcome section of a simulator report.
type Report struct {
	Spied  recon.Key
	Secret recon.Key
}

// Correct counts the positions recovered correctly; unknown counts as
// incorrect.
func (r *Report) Correct() int {
	return CorrectBits(r.Secret.Compact(), r.Spied.Compact())
}

// ParseReport reads the "Spied Key" and "Origi Key" lines of a report.
// Other lines are ignored.
func ParseReport(r io.Reader) (*Report, error) {
	var rep Report
	var haveSpied, haveSecret bool
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		var err error
		switch {
		case strings.HasPrefix(line, spiedPrefix):
			rep.Spied, err = recon.ParseKey(strings.TrimPrefix(line, spiedPrefix))
			haveSpied = true
		case strings.HasPrefix(line, secretPrefix):
			rep.Secret, err = recon.ParseSecret(strings.TrimPrefix(line, secretPrefix))
			haveSecret = true
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %q", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading report")
	}
	if !haveSpied || !haveSecret {
		return nil, errors.New("report has no \"Spied Key\"/\"Origi Key\" pair")
	}
	if len(rep.Spied) != len(rep.Secret) {
		return nil, errors.Errorf("spied key has %d bits, secret has %d", len(rep.Spied), len(rep.Secret))
	}
	return &rep, nil
}
