// Package score defines the relevance-scoring boundary consumed by the
// filter engine, plus the default fuzzy implementation. The engine only
// depends on the interfaces here, so tests substitute deterministic
// scorers freely.
package score

import "fmt"

// CaseMode controls case sensitivity of matching.
type CaseMode int

const (
	// CaseSmart matches case-insensitively unless the pattern contains
	// an upper-case rune.
	CaseSmart CaseMode = iota
	// CaseIgnore always matches case-insensitively.
	CaseIgnore
	// CaseRespect always matches case-sensitively.
	CaseRespect
)

// ParseCaseMode maps a configuration string to a CaseMode. The empty
// string means smart case.
func ParseCaseMode(s string) (CaseMode, error) {
	switch s {
	case "smart", "":
		return CaseSmart, nil
	case "ignore":
		return CaseIgnore, nil
	case "respect":
		return CaseRespect, nil
	}
	return 0, fmt.Errorf("unknown case mode %q", s)
}

// MatchMode selects fuzzy subsequence or exact substring matching.
type MatchMode int

const (
	MatchFuzzy MatchMode = iota
	MatchExact
)

// Slab is per-process scratch reused across every scoring call for the
// process lifetime. It is owned by a single goroutine and must not be
// shared.
type Slab struct {
	fold []byte       // case-folding buffer for exact matching
	one  singleSource // reusable single-candidate source
}

// Pattern is a compiled query pattern. Free must be called exactly
// once, when the query that compiled it finishes.
type Pattern interface {
	// Score rates candidate against the pattern. A result > 0 means the
	// candidate matches; non-positive results exclude it.
	Score(candidate string, slab *Slab) int
	Free()
}

// Scorer compiles patterns. An implementation is chosen once at startup
// and reused for every query.
type Scorer interface {
	Compile(pattern string) Pattern
	NewSlab() *Slab
}
