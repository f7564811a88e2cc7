package filter

import (
	"time"
	"unicode/utf8"

	"github.com/fennwick/winnow"
	"github.com/fennwick/winnow/field"
	"github.com/fennwick/winnow/score"
)

// FromConfig builds the engine options and the default scorer from a
// validated configuration.
func FromConfig(cfg *winnow.Config) (Options, score.Scorer, error) {
	caseMode, err := score.ParseCaseMode(cfg.Match.Case)
	if err != nil {
		return Options{}, nil, err
	}
	mode := score.MatchFuzzy
	if cfg.Match.Exact {
		mode = score.MatchExact
	}

	opts := Options{Limit: cfg.Limit}
	if cfg.Field.Index >= 0 {
		delim, _ := utf8.DecodeRuneInString(cfg.Field.Delimiter)
		opts.Field = &field.Spec{
			Delimiter:  delim,
			Index:      cfg.Field.Index,
			Partitions: cfg.Field.Partitions,
		}
	}
	if cfg.Cache.Enabled {
		opts.Cache = NewCache(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	}
	return opts, score.NewFuzzy(caseMode, mode), nil
}
