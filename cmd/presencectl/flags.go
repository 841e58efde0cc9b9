package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
)

// levelFlag adapts a slog.LevelVar to a command-line flag, so the level can
// also be changed while running.
type levelFlag struct {
	level *slog.LevelVar
}

var _ pflag.Value = levelFlag{}

func (f levelFlag) String() string {
	if f.level == nil {
		return slog.LevelInfo.String()
	}
	return strings.ToLower(f.level.Level().String())
}

func (f levelFlag) Set(s string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("invalid log level %q: use debug, info, warn or error", s)
	}
	f.level.Set(l)
	return nil
}

func (f levelFlag) Type() string {
	return "level"
}

// addLevelFlag registers --log-level on fs.
func addLevelFlag(fs *pflag.FlagSet, level *slog.LevelVar) {
	fs.Var(levelFlag{level: level}, "log-level", "Log level (debug, info, warn, error)")
}
