package score

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const combinedTag = "Combined"

// Combined is the key merged from every "Combined Key: <bits>" line of a
// multi-spy log.
type Combined struct {
	Key       string // '0', '1' and '?' characters
	Unknown   int    // '?' positions left after merging
	Lines     int    // combined-key lines read
	Conflicts []int  // positions where a later line disagreed; first value kept
}

// MergeCombined reads combined-key lines. The first line fixes the key length
// and seeds every position; later lines only fill '?' positions and never
// extend the key.
func MergeCombined(r io.Reader) (*Combined, error) {
	var key []byte
	c := &Combined{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != combinedTag {
			continue
		}
		if len(fields) < 3 {
			return nil, errors.Errorf("line %d: combined key line has no key", c.Lines+1)
		}
		bits := fields[2]
		if c.Lines == 0 {
			key = make([]byte, 0, len(bits))
		}
		for i := 0; i < len(bits); i++ {
			b := bits[i]
			if b != '0' && b != '1' && b != '?' {
				return nil, errors.Errorf("invalid key character %q at position %d", b, i)
			}
			if c.Lines == 0 {
				key = append(key, b)
				continue
			}
			if i >= len(key) || b == '?' {
				continue
			}
			switch key[i] {
			case '?':
				key[i] = b
			case b:
			default:
				c.Conflicts = append(c.Conflicts, i)
			}
		}
		c.Lines++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading combined keys")
	}
	if c.Lines == 0 {
		return nil, errors.New("no \"Combined Key\" lines found")
	}
	c.Key = string(key)
	c.Unknown = strings.Count(c.Key, "?")
	return c, nil
}

// Alignment scores a merged key against the original, tolerating spurious
// repeats of the previous bit.
type Alignment struct {
	Hits       int
	Duplicates int // extra bits equal to the previous original bit, skipped
	Errors     int
	Unknowns   int
	// Overrun is the number of merged positions left unread once the original
	// was fully consumed; zero when the merged key ended first.
	Overrun int
}

// Align walks full against original. A match or '?' consumes a position of
// both; a mismatching bit that repeats the previous original bit is taken as
// a duplicate and consumes only full; anything else is an error.
func Align(full, original string) Alignment {
	var a Alignment
	if original == "" {
		return a
	}
	pos := 0
	for i := 0; i < len(full); {
		switch {
		case full[i] == original[pos]:
			a.Hits++
			pos++
		case full[i] == '?':
			a.Unknowns++
			pos++
		case pos > 0 && original[pos-1] == full[i]:
			a.Duplicates++
		default:
			a.Errors++
			pos++
		}
		i++
		if pos >= len(original) {
			a.Overrun = len(full) - i
			break
		}
	}
	return a
}
