// Package log holds the component loggers for the module. As a library it
// stays silent until the embedding program calls Init; every logger defaults
// to a no-op sink.
package log

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type LoggerType uint8

const (
	ConsoleLogger LoggerType = iota
	JSONLogger
)

var (
	Root   = zerolog.Nop()
	Store  = zerolog.Nop()
	Engine = zerolog.Nop()
)

// Options for Init
type Options struct {
	// Minimum level that gets emitted, default Info
	LogLevel zerolog.Level
	Type     LoggerType
}

func ParseLogLevel(loglevel string) (zerolog.Level, error) {
	return zerolog.ParseLevel(loglevel)
}

// Init builds the component loggers. Store covers database handle lifecycle
// and teardown paths; Engine receives the storage engine's own messages.
func Init(opts Options) {
	switch opts.Type {
	case ConsoleLogger:
		cw := newConsoleWriter()
		Root = zerolog.New(cw).Level(opts.LogLevel).
			With().Timestamp().Logger()
	default:
		Root = zerolog.New(os.Stdout).Level(opts.LogLevel).
			With().Timestamp().Logger()
	}
	Store = Root.With().Str("component", "store").Logger()
	Engine = Root.With().Str("component", "engine").Logger()
}

func newConsoleWriter() zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true, TimeFormat: time.RFC3339}

	cw.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	cw.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("message: \"%s\" |", i)
	}

	cw.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("\"%s\": ", i)
	}

	cw.FormatFieldValue = func(i interface{}) string {
		return fmt.Sprintf("\"%s\" |", i)
	}

	cw.FormatErrFieldValue = func(i interface{}) string {
		return fmt.Sprintf(" %s |", i)
	}
	return cw
}
