package signals

import "log/slog"

// Option configures a registry during construction.
type Option func(*Registry)

// ErrorHandler decides what happens to a callback failure. Returning nil
// swallows the failure and lets Process continue; returning an error
// (the same one or a translated one) aborts Process, which returns it.
type ErrorHandler func(err error) error

// WithErrorHandler installs a custom failure policy, replacing the default
// interactive-aware one.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(r *Registry) {
		r.handler = handler
	}
}

// WithInteractiveCheck injects the capability query used by the default
// failure policy to decide whether an interactive GUI event loop is running.
// The default check always reports false.
func WithInteractiveCheck(check func() bool) Option {
	return func(r *Registry) {
		if check != nil {
			r.interactive = check
		}
	}
}

// WithLogger sets the logger used when the default policy suppresses a
// callback failure during an interactive session. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}
