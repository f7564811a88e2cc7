package score

import (
	"bytes"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// Fuzzy is the default Scorer. Fuzzy mode scores ordered-subsequence
// matches through sahilm/fuzzy; exact mode requires a contiguous
// substring. Compiled patterns are recycled through a pool.
type Fuzzy struct {
	caseMode CaseMode
	mode     MatchMode
	patterns sync.Pool
}

// NewFuzzy creates a scorer with the given case and matching policy.
func NewFuzzy(caseMode CaseMode, mode MatchMode) *Fuzzy {
	f := &Fuzzy{caseMode: caseMode, mode: mode}
	f.patterns.New = func() any { return new(fuzzyPattern) }
	return f
}

// NewSlab allocates the reusable scratch state. Call once at startup.
func (f *Fuzzy) NewSlab() *Slab {
	return &Slab{fold: make([]byte, 0, 1024)}
}

// Compile prepares pattern for repeated scoring. The returned Pattern
// must be freed when the query finishes.
func (f *Fuzzy) Compile(pattern string) Pattern {
	p := f.patterns.Get().(*fuzzyPattern)
	p.owner = f
	p.text = pattern
	p.respect = f.caseMode == CaseRespect ||
		(f.caseMode == CaseSmart && hasUpper(pattern))
	p.exact = f.mode == MatchExact
	if p.exact && !p.respect {
		p.needle = appendFoldASCII(p.needle[:0], pattern)
	}
	return p
}

type fuzzyPattern struct {
	owner   *Fuzzy
	text    string
	needle  []byte // folded pattern for case-insensitive exact search
	respect bool
	exact   bool
}

func (p *fuzzyPattern) Free() {
	owner := p.owner
	needle := p.needle[:0]
	*p = fuzzyPattern{needle: needle}
	owner.patterns.Put(p)
}

func (p *fuzzyPattern) Score(candidate string, slab *Slab) int {
	if p.exact {
		return p.scoreExact(candidate, slab)
	}
	return p.scoreFuzzy(candidate, slab)
}

// scoreFuzzy delegates to sahilm/fuzzy, which matches runes
// case-insensitively. Respecting case therefore needs an additional
// exact-rune subsequence check. sahilm scores can dip non-positive for
// heavily penalized matches; those clamp to 1 so that a match is always
// a positive score.
func (p *fuzzyPattern) scoreFuzzy(candidate string, slab *Slab) int {
	if p.respect && !subsequence(p.text, candidate) {
		return 0
	}
	slab.one.s = candidate
	matches := fuzzy.FindFrom(p.text, &slab.one)
	if len(matches) == 0 {
		return 0
	}
	if s := matches[0].Score; s > 0 {
		return s
	}
	return 1
}

// scoreExact requires the pattern as a contiguous substring. Earlier
// match positions and shorter candidates rank higher; a match always
// scores at least 1. Case folding is ASCII-only and goes through the
// slab's buffer, so no per-call allocation happens on the hot path.
func (p *fuzzyPattern) scoreExact(candidate string, slab *Slab) int {
	var idx int
	if p.respect {
		idx = strings.Index(candidate, p.text)
	} else {
		slab.fold = appendFoldASCII(slab.fold[:0], candidate)
		idx = bytes.Index(slab.fold, p.needle)
	}
	if idx < 0 {
		return 0
	}
	score := 100 + 4*len(p.text) - idx - (len(candidate) - len(p.text))
	if score < 1 {
		score = 1
	}
	return score
}

// singleSource adapts one candidate to fuzzy.Source without building a
// slice per call.
type singleSource struct {
	s string
}

func (s *singleSource) String(int) string { return s.s }
func (s *singleSource) Len() int          { return 1 }

// appendFoldASCII appends s to dst with ASCII letters lower-cased.
// Non-ASCII bytes pass through untouched, so non-ASCII text matches
// case-sensitively in exact mode.
func appendFoldASCII(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		dst = append(dst, c)
	}
	return dst
}

// subsequence reports whether pat occurs in s as an ordered
// subsequence, comparing runes exactly.
func subsequence(pat, s string) bool {
	if pat == "" {
		return true
	}
	pi := 0
	pr, size := utf8.DecodeRuneInString(pat)
	for _, r := range s {
		if r != pr {
			continue
		}
		pi += size
		if pi == len(pat) {
			return true
		}
		pr, size = utf8.DecodeRuneInString(pat[pi:])
	}
	return false
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
