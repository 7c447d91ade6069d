// Package recon reconstructs a secret bit sequence from spy hit/miss
// observations. It has no dependency on the cache model or the scheduler; it
// consumes plain histories and partial keys.
package recon

import (
	"fmt"
	"strconv"
	"strings"
)

// Bit is one key position: Zero, One or Unknown.
type Bit int8

const (
	Zero    Bit = 0
	One     Bit = 1
	Unknown Bit = -1
)

// Known reports whether b is Zero or One.
func (b Bit) Known() bool { return b == Zero || b == One }

// Key is an ordered bit sequence. The secret never holds Unknown.
type Key []Bit

// String renders the key as a bracketed list, e.g. "[0, 1, -1]".
// Report consumers match on this exact form.
func (k Key) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, b := range k {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(int(b)))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Compact renders the key as a run of '0', '1' and '?' characters.
func (k Key) Compact() string {
	var sb strings.Builder
	for _, b := range k {
		switch b {
		case Zero:
			sb.WriteByte('0')
		case One:
			sb.WriteByte('1')
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// Ones counts the positions holding One.
func (k Key) Ones() int {
	n := 0
	for _, b := range k {
		if b == One {
			n++
		}
	}
	return n
}

// NewUnknownKey returns a key of length n with every position Unknown.
func NewUnknownKey(n int) Key {
	k := make(Key, n)
	for i := range k {
		k[i] = Unknown
	}
	return k
}

// ParseKey accepts a compact string ("0110", "01?1"), a whitespace or comma
// separated list ("0 1 -1"), or the bracketed form produced by String.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return Key{}, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 1 && len(fields[0]) > 1 && !strings.HasPrefix(fields[0], "-") {
		fields = strings.Split(fields[0], "")
	}
	key := make(Key, 0, len(fields))
	for _, f := range fields {
		switch f {
		case "0":
			key = append(key, Zero)
		case "1":
			key = append(key, One)
		case "-1", "?":
			key = append(key, Unknown)
		default:
			return nil, fmt.Errorf("invalid key element %q", f)
		}
	}
	return key, nil
}

// ParseSecret parses a key that must not contain unknown positions.
func ParseSecret(s string) (Key, error) {
	key, err := ParseKey(s)
	if err != nil {
		return nil, err
	}
	for i, b := range key {
		if !b.Known() {
			return nil, fmt.Errorf("secret key position %d is unknown", i)
		}
	}
	return key, nil
}
