// Package logger builds the zap logger used by the md2deck CLI.
// The library itself only sees a *zap.Logger and defaults to zap.NewNop.
package logger

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures the CLI logger.
type Options struct {
	Format  string    // "console" (default) or "json"
	Verbose bool      // debug level instead of warn
	Output  io.Writer // usually stderr
}

// New returns a logger writing to opts.Output.
// Console output drops timestamps and callers to stay readable next to the
// CLI's own messages; JSON output keeps the production encoder fields.
func New(opts Options) (*zap.Logger, error) {
	if opts.Output == nil {
		return zap.NewNop(), nil
	}

	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "", FormatConsole:
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q (want %s or %s)", opts.Format, FormatConsole, FormatJSON)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(opts.Output), level)
	return zap.New(core), nil
}
