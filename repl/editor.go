package main

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// Editor is a minimal raw-mode line editor that reports every edit, so
// the filter engine sees one query per keystroke. It reads from
// /dev/tty so it works even when stdout is redirected.
type Editor struct {
	tty      *os.File
	oldState *term.State
	buf      []byte
	pos      int // cursor byte offset into buf
}

// NewEditor opens /dev/tty and switches to raw mode.
func NewEditor() (*Editor, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}

	old, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	return &Editor{tty: tty, oldState: old}, nil
}

// Close restores terminal state and closes the tty fd.
func (e *Editor) Close() {
	term.Restore(int(e.tty.Fd()), e.oldState)
	e.tty.Close()
}

// Tty returns the tty file for writing prompts/UI.
func (e *Editor) Tty() *os.File {
	return e.tty
}

// ReadLine displays the prompt and reads a line, invoking onEdit with
// the buffer content after every change (cursor-only moves do not
// count). It returns the final text on Enter, io.EOF on Ctrl-D with an
// empty buffer, and ErrInterrupt on Ctrl-C.
func (e *Editor) ReadLine(prompt string, onEdit func(string)) (string, error) {
	e.buf = e.buf[:0]
	e.pos = 0
	e.redraw(prompt)

	for {
		var b [1]byte
		if _, err := e.tty.Read(b[:]); err != nil {
			return "", err
		}

		edited := false
		switch b[0] {
		case 3: // Ctrl-C
			fmt.Fprintf(e.tty, "\r\n")
			return "", ErrInterrupt

		case 4: // Ctrl-D
			if len(e.buf) == 0 {
				fmt.Fprintf(e.tty, "\r\n")
				return "", io.EOF
			}

		case 13, 10: // Enter
			fmt.Fprintf(e.tty, "\r\n")
			return string(e.buf), nil

		case 127, 8: // Backspace / Ctrl-H
			if e.pos > 0 {
				size := prevRuneLen(e.buf, e.pos)
				copy(e.buf[e.pos-size:], e.buf[e.pos:])
				e.buf = e.buf[:len(e.buf)-size]
				e.pos -= size
				edited = true
			}

		case 21: // Ctrl-U (clear line)
			if len(e.buf) > 0 {
				e.buf = e.buf[:0]
				e.pos = 0
				edited = true
			}

		case 1: // Ctrl-A
			e.pos = 0

		case 5: // Ctrl-E
			e.pos = len(e.buf)

		case 27: // Escape sequence: only left/right arrows are handled
			var esc [2]byte
			if n, _ := e.tty.Read(esc[:1]); n == 0 || esc[0] != '[' {
				continue
			}
			if n, _ := e.tty.Read(esc[1:2]); n == 0 {
				continue
			}
			switch esc[1] {
			case 'D': // Left
				if e.pos > 0 {
					e.pos -= prevRuneLen(e.buf, e.pos)
				}
			case 'C': // Right
				if e.pos < len(e.buf) {
					_, size := utf8.DecodeRune(e.buf[e.pos:])
					e.pos += size
				}
			}

		default:
			if b[0] >= 32 {
				ch := []byte{b[0]}
				if b[0] >= 0xC0 {
					// Multi-byte UTF-8: read the continuation bytes.
					rest := make([]byte, runeLenFromLead(b[0])-1)
					e.tty.Read(rest)
					ch = append(ch, rest...)
				}
				e.buf = append(e.buf, make([]byte, len(ch))...)
				copy(e.buf[e.pos+len(ch):], e.buf[e.pos:len(e.buf)-len(ch)])
				copy(e.buf[e.pos:], ch)
				e.pos += len(ch)
				edited = true
			}
		}

		e.redraw(prompt)
		if edited && onEdit != nil {
			onEdit(string(e.buf))
		}
	}
}

// redraw clears the current line and redraws prompt + buffer, then
// moves the cursor back to its logical position.
func (e *Editor) redraw(prompt string) {
	fmt.Fprintf(e.tty, "\r\x1b[K%s%s", prompt, string(e.buf))
	if tail := utf8.RuneCount(e.buf[e.pos:]); tail > 0 {
		fmt.Fprintf(e.tty, "\x1b[%dD", tail)
	}
}

// prevRuneLen returns the byte size of the rune ending at pos.
func prevRuneLen(buf []byte, pos int) int {
	i := pos - 1
	for i > 0 && !utf8.RuneStart(buf[i]) {
		i--
	}
	return pos - i
}

// runeLenFromLead returns the expected byte length of a UTF-8 sequence
// from its leading byte.
func runeLenFromLead(lead byte) int {
	switch {
	case lead < 0xC0:
		return 1
	case lead < 0xE0:
		return 2
	case lead < 0xF0:
		return 3
	}
	return 4
}

// ErrInterrupt is returned when the user presses Ctrl-C.
var ErrInterrupt = fmt.Errorf("interrupted")
