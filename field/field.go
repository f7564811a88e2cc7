// Package field extracts the delimited segment of a line that is
// actually scored.
package field

import (
	"strings"
	"unicode/utf8"
)

// Spec selects one delimited segment of a line. A nil Spec means the
// whole line is scored.
type Spec struct {
	// Delimiter separates segments.
	Delimiter rune
	// Index is the zero-based segment to return.
	Index int
	// Partitions caps how many segments the line splits into; the last
	// segment keeps any remaining delimiters unsplit. 0 means unlimited.
	Partitions int
}

// Extract returns the segment of line at s.Index. The result is a
// subslice of line, never a copy. ok is false when the line has fewer
// segments than Index+1; such lines are excluded from scoring, which is
// a normal outcome rather than an error.
func (s *Spec) Extract(line string) (string, bool) {
	if s == nil {
		return line, true
	}
	if s.Index < 0 {
		return "", false
	}
	start := 0
	for seg := 0; ; seg++ {
		if s.Partitions > 0 && seg == s.Partitions-1 {
			// Last permitted segment: the remainder, delimiters and all.
			if seg == s.Index {
				return line[start:], true
			}
			return "", false
		}
		end := strings.IndexRune(line[start:], s.Delimiter)
		if end < 0 {
			if seg == s.Index {
				return line[start:], true
			}
			return "", false
		}
		if seg == s.Index {
			return line[start : start+end], true
		}
		start += end + utf8.RuneLen(s.Delimiter)
	}
}
