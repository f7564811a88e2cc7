// Package winnow defines the query/response wire types shared by the
// filter engine and its front ends. Queries arrive one per line as
// "<seq> <pattern>"; responses echo the seq on every matched line and
// terminate with a line holding the seq alone.
package winnow

import (
	"fmt"
	"io"
	"strings"
)

// Query is one filter request.
type Query struct {
	// Seq is the caller-assigned correlation token, echoed back verbatim
	// on every response line. It is opaque to the engine.
	Seq string
	// Pattern is the search text, kept verbatim. An all-whitespace
	// pattern means "return the corpus unranked", not "match nothing".
	Pattern string
}

// ParseQuery splits a raw input line into a Query. The token before the
// first space is the sequence id; everything after it is the pattern.
// A line with no space cannot be attributed to a request and reports
// ok=false.
func ParseQuery(line string) (Query, bool) {
	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return Query{}, false
	}
	return Query{Seq: line[:i], Pattern: line[i+1:]}, true
}

// Empty reports whether the pattern is the unranked-passthrough sentinel.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Pattern) == ""
}

// WriteMatch frames one response line for seq.
func WriteMatch(w io.Writer, seq, line string) error {
	_, err := fmt.Fprintf(w, "%s %s\n", seq, line)
	return err
}

// WriteEnd frames the end-of-response marker for seq. It is emitted
// after every response, including empty ones, so a caller streaming
// partial results can detect completion without a length prefix.
func WriteEnd(w io.Writer, seq string) error {
	_, err := fmt.Fprintf(w, "%s\n", seq)
	return err
}
