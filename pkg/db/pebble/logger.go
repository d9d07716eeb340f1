package pebble

import (
	"fmt"

	"github.com/eigerco/pebbledict/pkg/log"
)

// engineLogger routes the engine's internal messages into the Engine
// component logger. The engine calls Fatalf only on unrecoverable invariant
// violations, so it escalates to a panic rather than silently continuing.
type engineLogger struct{}

func (engineLogger) Infof(format string, args ...interface{}) {
	log.Engine.Info().Msgf(format, args...)
}

func (engineLogger) Errorf(format string, args ...interface{}) {
	log.Engine.Error().Msgf(format, args...)
}

func (engineLogger) Fatalf(format string, args ...interface{}) {
	log.Engine.Error().Msgf(format, args...)
	panic(fmt.Sprintf(format, args...))
}
