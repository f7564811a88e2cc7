package filter

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fennwick/winnow/field"
	"github.com/fennwick/winnow/score"
)

// fakeScorer scores candidates by substring position: earlier matches
// score higher, absent substrings score zero. It records activity so
// tests can assert on scorer involvement, and can optionally block in
// Compile to hold the consumer busy.
type fakeScorer struct {
	mu       sync.Mutex
	compiles int
	scores   int

	started chan struct{} // signaled when Compile begins, if non-nil
	gate    chan struct{} // Compile blocks until closed, if non-nil
}

func (f *fakeScorer) NewSlab() *score.Slab { return &score.Slab{} }

func (f *fakeScorer) Compile(pattern string) score.Pattern {
	f.mu.Lock()
	f.compiles++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	return &fakePattern{scorer: f, pat: pattern}
}

func (f *fakeScorer) counts() (compiles, scores int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compiles, f.scores
}

type fakePattern struct {
	scorer *fakeScorer
	pat    string
}

func (p *fakePattern) Free() {}

func (p *fakePattern) Score(candidate string, _ *score.Slab) int {
	p.scorer.mu.Lock()
	p.scorer.scores++
	p.scorer.mu.Unlock()
	idx := strings.Index(candidate, p.pat)
	if idx < 0 {
		return 0
	}
	return 100 - idx
}

func runEngine(t *testing.T, e *Engine, input string) string {
	t.Helper()
	var out bytes.Buffer
	if err := e.Run(strings.NewReader(input), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestLatestCoalesces(t *testing.T) {
	ch := make(chan string, mailboxSize)
	ch <- "1 a"
	ch <- "2 b"
	ch <- "3 c"
	close(ch)

	line, ok := latest(ch)
	if !ok || line != "3 c" {
		t.Errorf("latest = %q, %v; want \"3 c\", true", line, ok)
	}
	if _, ok := latest(ch); ok {
		t.Error("closed drained channel should report ok=false")
	}
}

func TestRunAnswersQuery(t *testing.T) {
	e := New([]string{"apple", "banana", "grape"}, &fakeScorer{}, Options{})
	defer e.Close()

	got := runEngine(t, e, "7 ap\n")
	// apple matches at 0, grape at 2; banana not at all.
	want := "7 apple\n7 grape\n7\n"
	if got != want {
		t.Errorf("response = %q, want %q", got, want)
	}
}

func TestRunAppliesLimit(t *testing.T) {
	e := New([]string{"apple", "grape", "apricot"}, &fakeScorer{}, Options{Limit: 1})
	defer e.Close()

	got := runEngine(t, e, "1 ap\n")
	// apple and apricot both match at 0; the tie breaks by line text
	// descending, so apricot wins the single slot.
	want := "1 apricot\n1\n"
	if got != want {
		t.Errorf("response = %q, want %q", got, want)
	}
}

func TestRunZeroMatchesStillTerminates(t *testing.T) {
	e := New([]string{"apple"}, &fakeScorer{}, Options{})
	defer e.Close()

	got := runEngine(t, e, "4 zzz\n")
	if got != "4\n" {
		t.Errorf("response = %q, want bare terminator", got)
	}
}

func TestRunDropsMalformedLines(t *testing.T) {
	e := New([]string{"apple"}, &fakeScorer{}, Options{})
	defer e.Close()

	got := runEngine(t, e, "noseparator\n")
	if got != "" {
		t.Errorf("malformed line produced output %q, want none", got)
	}
}

func TestEmptyPatternPassthrough(t *testing.T) {
	scorer := &fakeScorer{}
	e := New([]string{"c-line", "a-line", "b-line"}, scorer, Options{Limit: 2})
	defer e.Close()

	got := runEngine(t, e, "9 \n")
	// Original corpus order, not ranked, capped at the limit.
	want := "9 c-line\n9 a-line\n9\n"
	if got != want {
		t.Errorf("passthrough = %q, want %q", got, want)
	}
	if compiles, scores := scorer.counts(); compiles != 0 || scores != 0 {
		t.Errorf("passthrough touched the scorer: %d compiles, %d scores", compiles, scores)
	}
}

func TestFieldSpecSelectsCandidateButEmitsWholeLine(t *testing.T) {
	corpus := []string{"1\tapple", "2\tbanana", "short"}
	spec := &field.Spec{Delimiter: '\t', Index: 1}
	e := New(corpus, &fakeScorer{}, Options{Field: spec})
	defer e.Close()

	got := runEngine(t, e, "5 ap\n")
	// "short" has no field 1 and is excluded, not an error.
	want := "5 1\tapple\n5\n"
	if got != want {
		t.Errorf("response = %q, want %q", got, want)
	}
}

func TestIdempotentResponses(t *testing.T) {
	for _, cached := range []bool{false, true} {
		opts := Options{}
		if cached {
			opts.Cache = NewCache(time.Minute)
		}
		scorer := &fakeScorer{}
		e := New([]string{"apple", "grape"}, scorer, opts)

		// Separate Run calls so neither query can be coalesced away.
		got := runEngine(t, e, "1 ap\n") + runEngine(t, e, "2 ap\n")
		want := "1 apple\n1 grape\n1\n2 apple\n2 grape\n2\n"
		if got != want {
			t.Errorf("cached=%v: responses = %q, want %q", cached, got, want)
		}

		compiles, _ := scorer.counts()
		if cached && compiles != 1 {
			t.Errorf("cache enabled: %d compiles, want 1", compiles)
		}
		if !cached && compiles != 2 {
			t.Errorf("cache disabled: %d compiles, want 2", compiles)
		}
		e.Close()
	}
}

// stagedInput serves its first chunk immediately, holds the rest until
// the gate opens, and closes done once everything has been read. It
// lets the test pin down exactly when each query becomes visible to the
// reader goroutine.
type stagedInput struct {
	first    string
	rest     string
	restGate chan struct{}
	done     chan struct{}
	state    int
}

func (s *stagedInput) Read(p []byte) (int, error) {
	switch s.state {
	case 0:
		s.state = 1
		return copy(p, s.first), nil
	case 1:
		<-s.restGate
		s.state = 2
		return copy(p, s.rest), nil
	case 2:
		s.state = 3
		close(s.done)
		return 0, io.EOF
	default:
		return 0, io.EOF
	}
}

func TestCoalescingSkipsSupersededQueries(t *testing.T) {
	scorer := &fakeScorer{
		started: make(chan struct{}, 8),
		gate:    make(chan struct{}),
	}
	e := New([]string{"alpha", "beta", "gamma"}, scorer, Options{})
	defer e.Close()

	in := &stagedInput{
		first:    "1 al\n",
		rest:     "2 be\n3 ga\n",
		restGate: make(chan struct{}),
		done:     make(chan struct{}),
	}

	var out bytes.Buffer
	runDone := make(chan error, 1)
	go func() { runDone <- e.Run(in, &out) }()

	// Query 1 is being compiled; the consumer is busy.
	<-scorer.started

	// Queue queries 2 and 3 behind it, and wait until both have been
	// read off the input stream.
	close(in.restGate)
	<-in.done

	// Let scoring proceed. Query 1 was already in flight and must
	// complete; queries 2 and 3 were both queued, so 2 is coalesced
	// away and only 3 is processed.
	close(scorer.gate)

	if err := <-runDone; err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "1 alpha\n1\n3 gamma\n3\n"
	if got := out.String(); got != want {
		t.Errorf("responses = %q, want %q", got, want)
	}
	if compiles, _ := scorer.counts(); compiles != 2 {
		t.Errorf("%d compiles, want 2 (queries 1 and 3)", compiles)
	}
}

func TestProducerDropsOldestWhenMailboxFull(t *testing.T) {
	ch := make(chan string, 2)
	var input strings.Builder
	for i := 0; i < 10; i++ {
		input.WriteString("line\n")
	}
	produce(strings.NewReader(input.String()), ch)

	// The channel is closed and holds at most its capacity; the
	// producer must have finished without blocking.
	n := 0
	for range ch {
		n++
	}
	if n > 2 {
		t.Errorf("mailbox held %d lines, capacity 2", n)
	}
}
