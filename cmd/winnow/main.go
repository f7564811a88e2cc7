// Command winnow captures another command's output once, then answers
// filter queries read from stdin ("<seq> <pattern>", one per line) with
// the best-matching lines on stdout. Queries that arrive faster than
// they can be answered are coalesced: only the most recent one is
// processed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fennwick/winnow"
	"github.com/fennwick/winnow/capture"
	"github.com/fennwick/winnow/filter"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const usage = `Usage:
  winnow [flags] -- <command> [args...]

Captures the command's output once, then reads queries from stdin, one
per line as "<seq> <pattern>". Each response echoes the seq on every
matched line, best first, and ends with a line holding the seq alone.
An empty pattern returns the corpus unranked.

Flags:
  -l, -limit NUM              maximum number of lines per response
  -f, -field-index INDEX      delimited field to match (default: whole line)
  -p, -field-partitions NUM   maximum number of field partitions
  -d, -field-delimiter CHAR   field delimiter character (default: tab)
  -case MODE                  case sensitivity: smart, ignore, respect
  -exact                      exact substring matching instead of fuzzy
  -s, -shell                  run the command through a shell interpreter
  -no-cache                   disable the per-pattern result cache
  -config PATH                config file (default: ~/.config/winnow/config.toml)
  -verbose                    debug logging to stderr
  -version                    print version and exit
`

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

	fs := flag.NewFlagSet("winnow", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	var (
		limit       int
		fieldIndex  int
		partitions  int
		delimiter   string
		caseMode    string
		exact       bool
		shellMode   bool
		noCache     bool
		configPath  string
		verbose     bool
		showVersion bool
	)
	fs.IntVar(&limit, "l", 0, "maximum number of lines per response")
	fs.IntVar(&limit, "limit", 0, "maximum number of lines per response")
	fs.IntVar(&fieldIndex, "f", -1, "delimited field to match")
	fs.IntVar(&fieldIndex, "field-index", -1, "delimited field to match")
	fs.IntVar(&partitions, "p", 0, "maximum number of field partitions")
	fs.IntVar(&partitions, "field-partitions", 0, "maximum number of field partitions")
	fs.StringVar(&delimiter, "d", "\t", "field delimiter character")
	fs.StringVar(&delimiter, "field-delimiter", "\t", "field delimiter character")
	fs.StringVar(&caseMode, "case", "smart", "case sensitivity: smart, ignore, respect")
	fs.BoolVar(&exact, "exact", false, "exact substring matching instead of fuzzy")
	fs.BoolVar(&shellMode, "s", false, "run the command through a shell interpreter")
	fs.BoolVar(&shellMode, "shell", false, "run the command through a shell interpreter")
	fs.BoolVar(&noCache, "no-cache", false, "disable the per-pattern result cache")
	fs.StringVar(&configPath, "config", "", "config file path")
	fs.BoolVar(&verbose, "verbose", false, "debug logging to stderr")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	if showVersion {
		fmt.Println("winnow", Version)
		return 0
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := winnow.LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	// Flags that were set explicitly override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "l", "limit":
			cfg.Limit = limit
		case "f", "field-index":
			cfg.Field.Index = fieldIndex
		case "p", "field-partitions":
			cfg.Field.Partitions = partitions
		case "d", "field-delimiter":
			cfg.Field.Delimiter = delimiter
		case "case":
			cfg.Match.Case = caseMode
		case "exact":
			cfg.Match.Exact = exact
		case "no-cache":
			cfg.Cache.Enabled = false
		}
	})

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}
	if len(cmdArgs) == 0 {
		fs.Usage()
		slog.Error("command is not specified")
		return 1
	}

	ctx := context.Background()
	var res *capture.Result
	if shellMode {
		res, err = capture.RunShell(ctx, strings.Join(cmdArgs, " "))
	} else {
		res, err = capture.Run(ctx, cmdArgs)
	}
	if err != nil {
		// Relay the command's error output verbatim before failing.
		if res != nil {
			os.Stderr.Write(res.Stderr)
		}
		slog.Error("command failed", "error", err)
		return 1
	}

	corpus := capture.Lines(res.Stdout)
	slog.Debug("corpus captured", "lines", len(corpus))

	opts, scorer, err := filter.FromConfig(cfg)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	engine := filter.New(corpus, scorer, opts)
	defer engine.Close()

	if err := engine.Run(os.Stdin, os.Stdout); err != nil {
		slog.Error("filter loop failed", "error", err)
		return 1
	}
	return 0
}
