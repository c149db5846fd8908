// Package opt provides functional option providers for configuration
// structs. Providers are applied in order, panics are converted to
// errors, and if the configuration type has a Validate() method it
// runs after every provider.
package opt

import "github.com/tychoish/par/ers"

// Provider is a function type for building functional arguments, and
// is used to configure the engine that runs parallel iterators.
//
// The type T should always be mutable (e.g. a map, or a pointer).
type Provider[T any] func(T) error

// New constructs a new Provider, essentially for type casting purposes.
func New[T any](in func(T) error) Provider[T] { return in }

// Join takes a zero or more providers and
// produces a single combined provider. With zero or nil
// arguments, the operation becomes a noop.
func Join[T any](op ...Provider[T]) Provider[T] {
	var noop Provider[T] = func(T) error { return nil }
	if len(op) == 0 {
		return noop
	}
	return noop.Join(op...)
}

// Apply applies the current Provider to the configuration, and if the
// type T implements a Validate() method, calls that. All errors are
// aggregated.
func (op Provider[T]) Apply(in T) (err error) {
	defer func() { err = ers.Join(err, ers.ParsePanic(recover())) }()

	err = op(in)

	if validator, ok := any(in).(interface{ Validate() error }); ok {
		return ers.Join(validator.Validate(), err)
	}
	return err
}

// Build processes a configuration object, returning a modified
// version (or a zero value, in the case of an error).
func (op Provider[T]) Build(conf T) (out T, err error) {
	if err = op.Apply(conf); err != nil {
		return out, err
	}
	return conf, nil
}

// Join aggregates a collection of Providers into a single provider.
// The amalgamated operation is panic safe and omits all nil providers.
func (op Provider[T]) Join(opps ...Provider[T]) Provider[T] {
	return func(conf T) (err error) {
		defer func() { err = ers.Join(err, ers.ParsePanic(recover())) }()

		for _, next := range append([]Provider[T]{op}, opps...) {
			if next == nil {
				continue
			}
			err = ers.Join(next(conf), err)
		}

		return err
	}
}
