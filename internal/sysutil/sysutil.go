// Package sysutil holds process bootstrap helpers for the rentald binary:
// global logger setup and build version lookup.
package sysutil

import (
	"io"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a LOG_LEVEL value onto a zerolog level. Matching is
// case-insensitive; empty and unknown values fall back to info, and ok
// reports whether the value was recognized.
func ParseLevel(lvl string) (level zerolog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "fatal":
		return zerolog.FatalLevel, true
	case "panic":
		return zerolog.PanicLevel, true
	}
	return zerolog.InfoLevel, false
}

// SetLogLevel sets the global zerolog level from a LOG_LEVEL value.
func SetLogLevel(lvl string) {
	level, _ := ParseLevel(lvl)
	zerolog.SetGlobalLevel(level)
}

// SetupLogger configures the global logger: level, UTC RFC3339 timestamps,
// and a console writer when pretty is set. The logger also becomes the
// default for contexts without one, so log.Ctx never drops service logs.
func SetupLogger(out io.Writer, level string, pretty bool) zerolog.Logger {
	SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = l
	zerolog.DefaultContextLogger = &l

	if _, ok := ParseLevel(level); !ok {
		l.Warn().Str("log_level", level).Msg("unknown log level; using info")
	}
	return l
}

// Version returns the first non-empty of the given values, then the main
// module version from the build info, then "dev".
func Version(vals ...string) string {
	if v := FirstNonEmpty(vals...); v != "" {
		return strings.TrimSpace(v)
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

// FirstNonEmpty returns the first value that is not blank, unmodified.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
