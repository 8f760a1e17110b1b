package signals

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"slices"
	"sync"
	"weak"
)

// Registry maps signals to connected callbacks. The zero value is not
// usable; create instances with New. All methods are safe for concurrent
// use.
type Registry struct {
	callbacks map[string]map[int]*entry
	index     map[string]map[callbackKey]int
	byID      map[int]*entry
	nextID    int

	blocked    map[string]int
	blockedAll int

	handler     ErrorHandler
	interactive func() bool
	log         *slog.Logger

	mu sync.RWMutex
}

// callbackKey identifies a callback for duplicate suppression: the function's
// code pointer plus, for bound connections, the boxed weak owner pointer.
type callbackKey struct {
	code  uintptr
	owner any
}

type entry struct {
	id     int
	signal string
	key    callbackKey
	// call invokes the callback with already-reflected args. alive is false
	// when the connection's owner has been collected and the entry should be
	// purged instead of invoked.
	call func(args []reflect.Value) (alive bool, err error)
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{}
	r.reset()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// reset puts the registry into the freshly-constructed state.
func (r *Registry) reset() {
	r.callbacks = make(map[string]map[int]*entry)
	r.index = make(map[string]map[callbackKey]int)
	r.byID = make(map[int]*entry)
	r.blocked = make(map[string]int)
	r.blockedAll = 0
	r.handler = nil
	r.interactive = func() bool { return false }
	r.log = slog.Default()
}

// Connect registers fn as a callback for signal and returns its connection
// id. Connecting the same function under the same signal again returns the
// already-assigned id. Returns ErrNotCallable if fn is not a function.
func (r *Registry) Connect(signal string, fn any) (int, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return 0, ErrNotCallable
	}

	key := callbackKey{code: rv.Pointer()}
	call := func(args []reflect.Value) (bool, error) {
		return true, invoke(rv, args)
	}
	return r.register(signal, key, call), nil
}

// ConnectBound registers fn under signal on behalf of owner, holding owner
// only through a weak pointer. fn's first parameter must be *T; at dispatch
// the live owner is prepended to the Process arguments, so a method
// expression like (*Widget).Redraw fits directly. fn must not capture owner
// itself, or the weak reference is defeated.
//
// Once owner is garbage-collected the connection is purged: eagerly by a
// collection cleanup and lazily if Process runs first.
func ConnectBound[T any](r *Registry, signal string, owner *T, fn any) (int, error) {
	if owner == nil {
		return 0, ErrNilOwner
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return 0, ErrNotCallable
	}

	ref := weak.Make(owner)
	key := callbackKey{code: rv.Pointer(), owner: ref}
	call := func(args []reflect.Value) (bool, error) {
		v := ref.Value()
		if v == nil {
			return false, nil
		}
		bound := make([]reflect.Value, 0, len(args)+1)
		bound = append(bound, reflect.ValueOf(v))
		bound = append(bound, args...)
		return true, invoke(rv, bound)
	}

	id := r.register(signal, key, call)
	runtime.AddCleanup(owner, r.Disconnect, id)
	return id, nil
}

// register stores the entry under a fresh id, or returns the existing id for
// a duplicate (signal, key) pair. Ids increase monotonically and are never
// reused, even after disconnection.
func (r *Registry) register(signal string, key callbackKey, call func([]reflect.Value) (bool, error)) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.index[signal][key]; ok {
		return id
	}

	r.nextID++
	id := r.nextID
	if r.callbacks[signal] == nil {
		r.callbacks[signal] = make(map[int]*entry)
		r.index[signal] = make(map[callbackKey]int)
	}
	e := &entry{id: id, signal: signal, key: key, call: call}
	r.callbacks[signal][id] = e
	r.index[signal][key] = id
	r.byID[id] = e
	return id
}

// Disconnect removes the connection with the given id from both the forward
// and reverse maps. Unknown or already-removed ids are a no-op.
func (r *Registry) Disconnect(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.callbacks[e.signal], id)
	delete(r.index[e.signal], e.key)
	if len(r.callbacks[e.signal]) == 0 {
		delete(r.callbacks, e.signal)
		delete(r.index, e.signal)
	}
}

// Process invokes every live callback connected to signal, in registration
// order, passing args along. A signal with no connections is a no-op.
// Connections whose owner has been collected are skipped and purged.
//
// A callback failure goes through the registry's policy: a custom handler
// when one is installed, otherwise return-immediately in batch contexts and
// log-and-continue when the interactive check reports a running event loop.
func (r *Registry) Process(signal string, args ...any) error {
	r.mu.RLock()
	if r.blockedAll > 0 || r.blocked[signal] > 0 {
		r.mu.RUnlock()
		return nil
	}
	entries := make([]*entry, 0, len(r.callbacks[signal]))
	for _, e := range r.callbacks[signal] {
		entries = append(entries, e)
	}
	handler, interactive, log := r.handler, r.interactive, r.log
	r.mu.RUnlock()

	// Ascending ids give registration order.
	slices.SortFunc(entries, func(a, b *entry) int { return a.id - b.id })

	vals := make([]reflect.Value, len(args))
	for i, arg := range args {
		v := reflect.ValueOf(arg)
		if !v.IsValid() {
			v = reflect.Zero(anyType)
		}
		vals[i] = v
	}

	for _, e := range entries {
		alive, err := e.call(vals)
		if !alive {
			r.Disconnect(e.id)
			continue
		}
		if err == nil {
			continue
		}
		if handler != nil {
			if herr := handler(err); herr != nil {
				return herr
			}
			continue
		}
		if interactive() {
			log.Error("signal callback failed",
				slog.String("signal", signal),
				slog.Any("error", err))
			continue
		}
		return err
	}
	return nil
}

// Block suppresses dispatch for the named signals until the returned restore
// function is called; with no arguments every signal is blocked. Blocks
// nest, and the restore function is idempotent.
func (r *Registry) Block(signals ...string) (restore func()) {
	r.mu.Lock()
	if len(signals) == 0 {
		r.blockedAll++
	}
	for _, s := range signals {
		r.blocked[s]++
	}
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if len(signals) == 0 {
				r.blockedAll--
			}
			for _, s := range signals {
				if r.blocked[s]--; r.blocked[s] <= 0 {
					delete(r.blocked, s)
				}
			}
		})
	}
}

// Count returns the number of live connections for signal.
func (r *Registry) Count(signal string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.callbacks[signal])
}

// Signals returns the signals that currently have connections, sorted.
func (r *Registry) Signals() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.callbacks))
	for s := range r.callbacks {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// GobEncode implements gob.GobEncoder. Connections are process-bound
// closures that cannot survive serialization, so the encoded form carries no
// state.
func (r *Registry) GobEncode() ([]byte, error) {
	return []byte{}, nil
}

// GobDecode implements gob.GobDecoder. The restored registry is structurally
// identical to a freshly constructed one: valid empty maps, no connections,
// default policy.
func (r *Registry) GobDecode([]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
	return nil
}

var (
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// invoke calls fn, translating the two ways a callback can fail into an
// error: a non-nil error as the last return value, or a panic (which is what
// reflect raises for an argument mismatch).
func invoke(fn reflect.Value, args []reflect.Value) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("signals: callback panic: %v", rec)
		}
	}()

	out := fn.Call(args)
	if n := len(out); n > 0 && out[n-1].Type().Implements(errorType) {
		if cerr, ok := out[n-1].Interface().(error); ok && cerr != nil {
			return cerr
		}
	}
	return nil
}
