// Package logx builds the bridge's structured logger: zerolog for
// leveled, field-structured output, and go-spew for verbose struct
// dumps gated behind debug level.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
)

// Format is the log output format.
type Format string

const (
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

// Config configures the bridge's logger.
type Config struct {
	Debug  bool
	Format Format
}

// New builds a zerolog.Logger configured per cfg: debug level when Debug
// is set (no caller info is added), JSON by default, pretty console output
// when requested.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stdout

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == FormatPretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).With().
		Timestamp().
		Str("component", "tsbridge").
		Logger()
}

// Dump returns a go-spew rendering of v, for debug-level structural
// logging where a field value alone doesn't carry enough context.
func Dump(v interface{}) string {
	return spew.Sdump(v)
}
