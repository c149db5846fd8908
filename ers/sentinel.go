package ers

// ErrMalformedConfiguration indicates a configuration object that has
// failed validation.
const ErrMalformedConfiguration Error = Error("malformed configuration")

// ErrNotImplemented indicates an unfinished implementation, or a
// capability that a type does not provide. These errors are not
// generally retriable.
const ErrNotImplemented Error = Error("not implemented")

// ErrRecoveredPanic is at the root of any error returned by a
// function in the par package that recovers from a panic.
const ErrRecoveredPanic Error = Error("recovered panic")

// ErrInvalidInput indicates malformed input. These errors are not
// generally retriable.
const ErrInvalidInput Error = Error("invalid input")

// ErrInvariantViolation is the root error of the error object that is
// the content of all panics produced by the Invariant helper.
const ErrInvariantViolation Error = Error("invariant violation")
