// Package signals provides a registry connecting named signals to callbacks,
// with duplicate suppression, lifecycle-aware bound connections, and a
// pluggable policy for callback failures.
//
// A signal is just a string naming an event category ("draw", "resize").
// Callbacks are plain functions connected under a signal and invoked in
// registration order by Process, which forwards arbitrary arguments via
// reflection so heterogeneous signals can coexist in one registry.
//
// # Connections
//
// Connect returns an integer connection id, unique for the registry's
// lifetime and never reused. Connecting the same function under the same
// signal twice returns the existing id instead of registering a duplicate.
// Disconnect removes a connection and is a no-op for unknown ids.
//
// ConnectBound registers a callback on behalf of an owner object without
// keeping the owner alive: the registry holds only a weak pointer and hands
// the live owner to the callback as its first argument. Once the owner is
// garbage-collected the connection disappears on its own.
//
// # Failure policy
//
// A callback fails by returning a non-nil error (last return value) or by
// panicking - including the reflection panic from an argument mismatch.
// With no handler configured, Process returns the failure immediately unless
// the injected interactive check reports a running GUI event loop, in which
// case the failure is logged and dispatch continues; crashing a live
// interactive session over one bad callback is worse than finishing the
// draw. A custom handler installed with WithErrorHandler sees every failure
// and either swallows it (nil) or aborts Process with the error it returns.
//
// # Usage
//
//	reg := signals.New()
//
//	cid, err := reg.Connect("draw", func(frame int) {
//		render(frame)
//	})
//	if err != nil {
//		// the value was not a function
//	}
//
//	_ = reg.Process("draw", 42)
//	reg.Disconnect(cid)
//
// Suppress dispatch temporarily:
//
//	restore := reg.Block("draw")
//	defer restore()
//
// The registry is safe for concurrent use. Dispatch itself is synchronous
// and sequential; a slow callback delays the ones registered after it.
package signals
