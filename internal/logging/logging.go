// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much is logged.
type Options struct {
	// Level is one of trace, debug, info, warn or error. Unknown values mean info.
	Level string

	// File enables a rotated, uncolored log file when set.
	File string

	// Console receives colored output. Defaults to os.Stdout.
	Console io.Writer
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger from opts. The returned closer flushes and closes
// the log file, if any.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
		},
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return zerolog.Logger{}, nil, err
		}
		file := &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		}
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
		closer = file
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Logger()

	return logger, closer, nil
}

// Setup installs a logger built from opts as the global logger.
func Setup(opts Options) (io.Closer, error) {
	logger, closer, err := New(opts)
	if err != nil {
		return nil, err
	}

	zerolog.SetGlobalLevel(ParseLevel(opts.Level))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	log.Logger = logger

	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
