// Command winnow-repl drives the filter engine the way an editor
// integration does: it captures the wrapped command's output once, then
// issues one query per keystroke and paints the freshest response under
// the prompt. Pressing Enter commits the query; when stdout is
// redirected, each committed query is appended to a TOML session log.
//
// Usage:
//
//	./winnow-repl -- <command> [args...]
//	./winnow-repl -- <command> > session.toml
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fennwick/winnow"
	"github.com/fennwick/winnow/capture"
	"github.com/fennwick/winnow/filter"
)

const (
	prompt        = "> "
	displayHeight = 8
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var cmdArgs []string
	for i, a := range args {
		if a == "--" {
			cmdArgs = args[i+1:]
			args = args[:i]
			break
		}
	}

	fs := flag.NewFlagSet("winnow-repl", flag.ContinueOnError)
	limit := fs.Int("l", 20, "maximum number of lines per response")
	shellMode := fs.Bool("s", false, "run the command through a shell interpreter")
	exact := fs.Bool("exact", false, "exact substring matching instead of fuzzy")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if len(cmdArgs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: winnow-repl [flags] -- <command> [args...]")
		return 1
	}

	cfg, err := winnow.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	cfg.Limit = *limit
	cfg.Match.Exact = *exact
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	var res *capture.Result
	if *shellMode {
		res, err = capture.RunShell(ctx, strings.Join(cmdArgs, " "))
	} else {
		res, err = capture.Run(ctx, cmdArgs)
	}
	if err != nil {
		if res != nil {
			os.Stderr.Write(res.Stderr)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	corpus := capture.Lines(res.Stdout)

	opts, scorer, err := filter.FromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	engine := filter.New(corpus, scorer, opts)
	defer engine.Close()

	editor, err := NewEditor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer editor.Close()
	tty := editor.Tty()

	fmt.Fprintf(tty, "\x1b[2J\x1b[H") // clear screen
	fmt.Fprintf(tty, "winnow repl — %d corpus lines\r\n", len(corpus))
	fmt.Fprintf(tty, "type to filter, Enter to commit, :quit or Ctrl-D to exit\r\n\r\n")

	// Engine plumbing: the repl is the query producer, the engine runs
	// against the pipes exactly as it does against stdin/stdout.
	queryR, queryW := io.Pipe()
	respR, respW := io.Pipe()
	engineDone := make(chan error, 1)
	go func() {
		err := engine.Run(queryR, respW)
		respW.Close()
		engineDone <- err
	}()

	view := &resultView{}
	painterDone := make(chan struct{})
	go func() {
		defer close(painterDone)
		collect(respR, view, tty)
	}()

	out := termWriter(os.Stdout)

	seq := 0
	send := func(text string) {
		seq++
		fmt.Fprintf(queryW, "%d %s\n", seq, text)
	}
	send("") // initial unranked view

	for {
		text, err := editor.ReadLine(prompt, send)
		if err == io.EOF || err == ErrInterrupt {
			break
		}
		if err != nil {
			fmt.Fprintf(tty, "read error: %v\r\n", err)
			break
		}
		if text == ":quit" || text == ":q" {
			break
		}

		// Give the in-flight response a moment to land, then commit.
		gotSeq, lines := view.waitFor(fmt.Sprint(seq), 250*time.Millisecond)
		fmt.Fprintf(tty, "committed %q: %d match(es)\r\n", text, len(lines))
		writeEntry(out, gotSeq, text, lines)
	}

	queryW.Close()
	if err := <-engineDone; err != nil {
		slog.Warn("engine stopped with error", "error", err)
	}
	<-painterDone
	return 0
}

// resultView holds the most recent complete response.
type resultView struct {
	mu    sync.Mutex
	seq   string
	lines []string
}

func (v *resultView) set(seq string, lines []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq = seq
	v.lines = lines
}

// waitFor polls until the response for seq has arrived or the timeout
// passes, then returns whatever response is freshest. Coalescing means
// seq itself may never be answered; the freshest one is still correct.
func (v *resultView) waitFor(seq string, timeout time.Duration) (string, []string) {
	deadline := time.Now().Add(timeout)
	for {
		v.mu.Lock()
		gotSeq, lines := v.seq, v.lines
		v.mu.Unlock()
		if gotSeq == seq || time.Now().After(deadline) {
			return gotSeq, lines
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// collect reassembles framed responses from the engine's output stream
// and paints each completed one. Match lines parse exactly like query
// lines ("<seq> <text>"); the terminator is the bare seq.
func collect(r io.Reader, view *resultView, tty io.Writer) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pendingSeq string
	var pending []string
	for sc.Scan() {
		line := sc.Text()
		if q, ok := winnow.ParseQuery(line); ok {
			if q.Seq != pendingSeq {
				pendingSeq = q.Seq
				pending = nil
			}
			pending = append(pending, q.Pattern)
			continue
		}
		// Terminator: the line is the seq alone.
		view.set(line, pending)
		paint(tty, line, pending)
		pendingSeq = ""
		pending = nil
	}
}

// paint renders up to displayHeight result lines below the prompt,
// saving and restoring the cursor so typing is not disturbed.
func paint(tty io.Writer, seq string, lines []string) {
	var b bytes.Buffer
	b.WriteString("\x1b7") // save cursor
	fmt.Fprintf(&b, "\r\n\x1b[K-- #%s: %d match(es)", seq, len(lines))
	shown := 0
	for _, line := range lines {
		if shown == displayHeight {
			fmt.Fprintf(&b, "\r\n\x1b[K   …")
			shown++
			break
		}
		fmt.Fprintf(&b, "\r\n\x1b[K   %s", line)
		shown++
	}
	for ; shown <= displayHeight; shown++ {
		b.WriteString("\r\n\x1b[K")
	}
	b.WriteString("\x1b8") // restore cursor
	tty.Write(b.Bytes())
}
