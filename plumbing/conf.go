package plumbing

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tychoish/par/ers"
	"github.com/tychoish/par/opt"
)

const instrumentationName = "github.com/tychoish/par"

// Conf describes the runtime options for the engine. Use the Conf*
// option providers with NewEngine; the defaults provide a usable
// engine that splits work across one task per CPU.
type Conf struct {
	// NumWorkers is the split budget: the engine halves it at
	// every split and stops splitting when it reaches zero, so
	// the number of leaf ranges is roughly twice this value. Zero
	// selects runtime.NumCPU(); negative values are invalid.
	NumWorkers int
	// MinLen is the length below which an indexed range is never
	// split. Values less than 1 are converted to 1.
	MinLen int
	// SplitPoint chooses where an indexed range of the given
	// length is cut. Results outside of (0, length) cause the
	// range to be processed without splitting. The default cuts
	// the range in half.
	SplitPoint func(length int) int
	// Logger receives a debug event for every split.
	Logger zerolog.Logger
	// Tracer opens one span for every top-level bridge call.
	Tracer trace.Tracer
}

func defaultConf() Conf {
	return Conf{
		NumWorkers: runtime.NumCPU(),
		MinLen:     1,
		SplitPoint: halve,
		Logger:     zerolog.Nop(),
		Tracer:     otel.Tracer(instrumentationName),
	}
}

func halve(length int) int { return length / 2 }

// Validate ensures that the configuration is valid, and returns an
// error if there are impossible configurations. Unset values are
// replaced with their defaults.
func (c *Conf) Validate() error {
	if c.NumWorkers < 0 {
		return fmt.Errorf("num workers %d must not be negative: %w", c.NumWorkers, ers.ErrMalformedConfiguration)
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = runtime.NumCPU()
	}

	c.MinLen = max(1, c.MinLen)

	if c.SplitPoint == nil {
		c.SplitPoint = halve
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(instrumentationName)
	}

	return nil
}

// ConfDefaults resets the configuration to the defaults.
func ConfDefaults() opt.Provider[*Conf] {
	return func(c *Conf) error { *c = defaultConf(); return nil }
}

// ConfSet overrides the configuration with the provided value.
func ConfSet(conf *Conf) opt.Provider[*Conf] {
	return func(c *Conf) error {
		if conf == nil {
			return ers.Wrap(ers.ErrInvalidInput, "cannot set a nil configuration")
		}
		*c = *conf
		return nil
	}
}

// ConfNumWorkers sets the split budget. It is not possible to set
// this value to less than 1: negative values and 0 are converted to 1.
func ConfNumWorkers(num int) opt.Provider[*Conf] {
	return func(c *Conf) error { c.NumWorkers = max(1, num); return nil }
}

// ConfWorkerPerCPU sets the split budget to the number of CPUs
// detected by the runtime (e.g. runtime.NumCPU()).
func ConfWorkerPerCPU() opt.Provider[*Conf] {
	return func(c *Conf) error { c.NumWorkers = runtime.NumCPU(); return nil }
}

// ConfMinLen sets the smallest indexed range that will be split.
func ConfMinLen(n int) opt.Provider[*Conf] {
	return func(c *Conf) error {
		if n < 1 {
			return fmt.Errorf("min length %d must be positive: %w", n, ers.ErrInvalidInput)
		}
		c.MinLen = n
		return nil
	}
}

// ConfSplitPoint installs a function that chooses where indexed
// ranges are cut.
func ConfSplitPoint(fn func(length int) int) opt.Provider[*Conf] {
	return func(c *Conf) error {
		if fn == nil {
			return ers.Wrap(ers.ErrInvalidInput, "cannot use a nil split point function")
		}
		c.SplitPoint = fn
		return nil
	}
}

// ConfLogger sets the logger that records split decisions.
func ConfLogger(logger zerolog.Logger) opt.Provider[*Conf] {
	return func(c *Conf) error { c.Logger = logger; return nil }
}

// ConfTracer sets the tracer used for bridge spans.
func ConfTracer(tracer trace.Tracer) opt.Provider[*Conf] {
	return func(c *Conf) error {
		if tracer == nil {
			return ers.Wrap(ers.ErrInvalidInput, "cannot use a nil tracer")
		}
		c.Tracer = tracer
		return nil
	}
}
