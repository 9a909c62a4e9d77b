package main

import (
	"fmt"
	"strings"

	"github.com/decred/slog"
	"github.com/spf13/pflag"
)

type FlagLogLevel struct {
	level string
}

var _ pflag.Value = (*FlagLogLevel)(nil)

func (f FlagLogLevel) String() string {
	return f.level
}

func (f *FlagLogLevel) Set(v string) error {
	s := strings.ToLower(v)
	if _, ok := slog.LevelFromString(s); !ok {
		return fmt.Errorf("invalid log level: %q", v)
	}

	f.level = s

	return nil
}

func (f FlagLogLevel) Type() string {
	return "log-level"
}
