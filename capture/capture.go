// Package capture runs the wrapped command exactly once and turns its
// standard output into the immutable corpus.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Result holds the command's captured streams. Stderr is kept even on
// failure so the caller can relay it verbatim.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Run executes argv directly and captures its output. Both pipes are
// drained concurrently so a command that fills one cannot deadlock the
// other. A start failure or non-zero exit returns an error alongside
// whatever was captured.
func Run(ctx context.Context, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("command is not specified")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", argv[0], err)
	}

	var stdout, stderr bytes.Buffer
	g := new(errgroup.Group)
	g.Go(func() error {
		_, err := io.Copy(&stdout, outPipe)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, errPipe)
		return err
	})
	copyErr := g.Wait()

	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err := cmd.Wait(); err != nil {
		return res, fmt.Errorf("%s: %w", argv[0], err)
	}
	if copyErr != nil {
		return res, copyErr
	}
	return res, nil
}

// RunShell parses command as a shell program and runs it with an
// embedded interpreter, capturing stdout and stderr the same way. A
// non-zero exit status of the program surfaces as an error.
func RunShell(ctx context.Context, command string) (*Result, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return nil, err
	}

	err = runner.Run(ctx, file)
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		return res, fmt.Errorf("run command: %w", err)
	}
	return res, nil
}

// Lines decodes captured stdout into corpus lines. Invalid UTF-8 is
// replaced rather than treated as fatal, so one corrupted line cannot
// kill the session. The corpus is never re-captured or mutated after
// this call.
func Lines(stdout []byte) []string {
	text := string(stdout)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
