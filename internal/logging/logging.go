// Package logging builds the zerolog loggers used by the command line
// tools.
package logging

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tychoish/par/ers"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	validLevels  = []string{"trace", "debug", "info", "warn", "error", "fatal", "disabled"}
	validFormats = []string{FormatJSON, FormatConsole}
)

// Config describes a logger.
type Config struct {
	Level     string `mapstructure:"log_level"`
	Format    string `mapstructure:"log_format"`
	NoColor   bool   `mapstructure:"log_no_color"`
	Timestamp bool   `mapstructure:"log_timestamp"`
}

// ApplyDefaults fills in unset values.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	c.Level = strings.ToLower(c.Level)
	c.Format = strings.ToLower(c.Format)
}

// Validate reports unknown levels and formats.
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, c.Level) {
		return fmt.Errorf("log level must be one of %v (got: %q): %w", validLevels, c.Level, ers.ErrMalformedConfiguration)
	}
	if !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("log format must be one of %v (got: %q): %w", validFormats, c.Format, ers.ErrMalformedConfiguration)
	}
	return nil
}

// New builds a logger writing to out. The configuration is defaulted
// and validated first; the global zerolog level is not modified.
func New(cfg Config, out io.Writer) (zerolog.Logger, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), err
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), ers.Join(err, ers.ErrMalformedConfiguration)
	}

	var zl zerolog.Logger
	switch cfg.Format {
	case FormatConsole:
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		})
	default:
		zl = zerolog.New(out)
	}

	zl = zl.Level(level)
	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}

	return zl, nil
}
