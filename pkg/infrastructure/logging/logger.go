package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// Options controls logger construction
type Options struct {
	// Level is a zerolog level name; empty means info
	Level string
	// Console selects the human-readable writer instead of JSON lines
	Console bool
	// Out defaults to stderr
	Out io.Writer
}

// New builds the process logger
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if name := strings.TrimSpace(opts.Level); name != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(name))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("%w: log level %q: %v", entities.ErrInvalidConfiguration, opts.Level, err)
		}
		level = parsed
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", "replenish").
		Logger().
		Level(level), nil
}
