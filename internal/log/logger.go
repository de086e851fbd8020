package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls the diagnostic logger. Human-facing command output goes to
// stdout through the ui package; the logger writes to stderr.
type Options struct {
	Level  string
	Pretty bool
	Out    io.Writer
}

// Init replaces the zerolog global logger.
func Init(opts Options) {
	log.Logger = New("floppy", opts)
}

// New builds a component logger. Unknown or empty levels fall back to warn so
// progress output on stdout is not interleaved with info noise.
func New(component string, opts Options) zerolog.Logger {
	level := zerolog.WarnLevel
	if lvl, err := zerolog.ParseLevel(opts.Level); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).With().Timestamp().Str("component", component).Logger()
}
