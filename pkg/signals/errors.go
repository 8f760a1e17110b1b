package signals

import "errors"

var (
	// ErrNotCallable is returned when a connect call receives a value that is not a function.
	ErrNotCallable = errors.New("signals: callback is not a function")
	// ErrNilOwner is returned when a bound connection is made with a nil owner.
	ErrNilOwner = errors.New("signals: owner must not be nil")
)
