// Package sysutil holds process-level plumbing shared by cmd/server and
// config: the zerolog sink setup and environment helpers.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps a level name to a zerolog.Level. "warning" is accepted for
// warn; blank and unknown names give info.
func ParseLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetLogLevel sets the global zerolog level from a level name.
func SetLogLevel(name string) { zerolog.SetGlobalLevel(ParseLevel(name)) }

// LogOptions selects the sinks NewLogger writes to.
type LogOptions struct {
	Pretty bool      // console output for local development
	Stdout io.Writer // defaults to os.Stdout

	// File adds a size-rotated JSON file; empty disables it.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewLogger builds the process logger. Close the returned closer on exit to
// release the log file; it is never nil.
func NewLogger(opts LogOptions) (zerolog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	if opts.Stdout != nil {
		out = opts.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if opts.File == "" {
		return zerolog.New(out).With().Timestamp().Logger(), nopCloser{}
	}

	// the file always gets JSON, even when stdout is pretty
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	return zerolog.New(zerolog.MultiLevelWriter(out, file)).With().Timestamp().Logger(), file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseBool reads the usual on/off spellings (1/0, true/false, yes/no, y/n,
// on/off, any case). ok is false for anything else.
func ParseBool(s string) (v, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	}
	return false, false
}

// LookupFirst returns the value of the first of keys that is set to a
// non-blank value.
func LookupFirst(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}
