// Package filter implements the query loop: a coalescing reader feeds
// one query at a time through field extraction, scoring, and top-K
// selection, and frames each ranked result on the output stream.
package filter

import (
	"bufio"
	"io"
	"log/slog"

	"github.com/fennwick/winnow"
	"github.com/fennwick/winnow/field"
	"github.com/fennwick/winnow/rank"
	"github.com/fennwick/winnow/score"
)

// mailboxSize bounds the hand-off channel between the query reader and
// the scoring loop. The reader drops the oldest queued line when the
// mailbox is full, so input reading never stalls behind a slow query;
// the consumer coalesces away anything stale regardless.
const mailboxSize = 16

// Options fixes the per-process filtering surface.
type Options struct {
	// Limit caps the number of emitted lines per query. 0 means no cap.
	Limit int
	// Field selects the scored segment of each line. nil scores the
	// whole line.
	Field *field.Spec
	// Cache memoizes ranked results per pattern. nil disables caching.
	Cache *Cache
}

// Engine owns the static corpus and the scorer's scratch state for the
// process lifetime and answers queries one at a time. It is not safe
// for concurrent use; the only concurrency is the internal reader
// goroutine, which never touches corpus, scorer, or slab.
type Engine struct {
	corpus []string
	scorer score.Scorer
	slab   *score.Slab
	opts   Options
}

// New creates an engine over an immutable corpus. The scorer's slab is
// acquired once here and reused for every query.
func New(corpus []string, scorer score.Scorer, opts Options) *Engine {
	return &Engine{
		corpus: corpus,
		scorer: scorer,
		slab:   scorer.NewSlab(),
		opts:   opts,
	}
}

// Close releases the engine's cache resources.
func (e *Engine) Close() {
	if e.opts.Cache != nil {
		e.opts.Cache.Close()
	}
}

// Run reads query lines from in until EOF, answering each surviving
// query on out. Queries superseded while another is being scored are
// discarded without producing any output; a query whose scoring has
// started always runs to completion. Run returns once the input stream
// closes and any in-flight query has been answered.
func (e *Engine) Run(in io.Reader, out io.Writer) error {
	queries := make(chan string, mailboxSize)
	go produce(in, queries)

	w := bufio.NewWriter(out)
	for {
		line, ok := latest(queries)
		if !ok {
			return w.Flush()
		}
		q, ok := winnow.ParseQuery(line)
		if !ok {
			// No sequence id to respond under; drop silently.
			slog.Debug("dropping malformed query line", "line", line)
			continue
		}
		if err := e.answer(q, w); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}

// produce reads one line at a time into the mailbox and closes it at
// EOF. The send never blocks: when the mailbox is full the oldest
// queued line is discarded first. Only this goroutine sends, so the
// slot freed by the drain cannot be stolen.
func produce(in io.Reader, ch chan string) {
	defer close(ch)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		select {
		case ch <- line:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- line
		}
	}
	if err := sc.Err(); err != nil {
		slog.Warn("query stream read failed", "error", err)
	}
}

// latest is the coalescing receive: block for the next queued line,
// then drain anything queued behind it, keeping only the newest. If
// three queries arrived while the previous one was being scored, the
// first two are discarded here. ok is false once the stream is closed
// and drained.
func latest(ch <-chan string) (string, bool) {
	line, ok := <-ch
	if !ok {
		return "", false
	}
	for {
		select {
		case newer, open := <-ch:
			if !open {
				return line, true
			}
			line = newer
		default:
			return line, true
		}
	}
}

func (e *Engine) answer(q winnow.Query, w *bufio.Writer) error {
	if q.Empty() {
		return e.passthrough(q.Seq, w)
	}

	lines, ok := e.cached(q.Pattern)
	if !ok {
		lines = e.match(q.Pattern)
		e.store(q.Pattern, lines)
	}
	for _, line := range lines {
		if err := winnow.WriteMatch(w, q.Seq, line); err != nil {
			return err
		}
	}
	return winnow.WriteEnd(w, q.Seq)
}

// passthrough emits up to Limit corpus lines in original order, with no
// scorer involvement. The empty pattern means "show everything", not
// "match nothing".
func (e *Engine) passthrough(seq string, w *bufio.Writer) error {
	lines := e.corpus
	if e.opts.Limit > 0 && len(lines) > e.opts.Limit {
		lines = lines[:e.opts.Limit]
	}
	for _, line := range lines {
		if err := winnow.WriteMatch(w, seq, line); err != nil {
			return err
		}
	}
	return winnow.WriteEnd(w, seq)
}

// match scores the corpus against pattern and returns the ranked
// surviving lines. The compiled pattern lives exactly as long as the
// query.
func (e *Engine) match(pattern string) []string {
	p := e.scorer.Compile(pattern)
	defer p.Free()

	var scored []rank.Scored
	for _, line := range e.corpus {
		candidate, ok := e.opts.Field.Extract(line)
		if !ok {
			continue
		}
		if s := p.Score(candidate, e.slab); s > 0 {
			scored = append(scored, rank.Scored{Score: s, Line: line})
		}
	}

	top := rank.Top(scored, e.opts.Limit)
	lines := make([]string, len(top))
	for i, item := range top {
		lines[i] = item.Line
	}
	return lines
}

func (e *Engine) cached(pattern string) ([]string, bool) {
	if e.opts.Cache == nil {
		return nil, false
	}
	return e.opts.Cache.Get(pattern)
}

func (e *Engine) store(pattern string, lines []string) {
	if e.opts.Cache != nil {
		e.opts.Cache.Set(pattern, lines)
	}
}
