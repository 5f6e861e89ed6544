package reactive

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// GetterFunc is a watcher's evaluation source.
type GetterFunc func() any

// Callback receives the new and previous evaluation results after a
// watcher re-runs with a changed value.
type Callback func(value, oldValue any)

// WatcherOptions configures a watcher's flags and lifecycle hooks.
type WatcherOptions struct {
	// Deep traverses the whole evaluation result to register nested
	// subscriptions even without direct property reads.
	Deep bool
	// Lazy skips evaluation on construction and caches until invalidated;
	// the basis of computed-property semantics.
	Lazy bool
	// Sync bypasses the scheduler and re-evaluates immediately on
	// invalidation.
	Sync bool
	// User marks watchers registered by application code: their errors are
	// reported and swallowed instead of propagating.
	User bool
	// Before runs immediately prior to re-evaluation during a flush.
	Before func()
	// Posted runs in the scheduler's post-update pass after a flush in
	// which this watcher ran.
	Posted func()
}

// Watcher is a unit of derived work: a render function, a computed getter,
// or a user watch callback. It re-evaluates when any dep it read during its
// last evaluation is invalidated, and reconciles its read-set on every
// evaluation so stale conditional-branch subscriptions are pruned.
type Watcher struct {
	rt         *Runtime
	id         uint64
	getter     GetterFunc
	cb         Callback
	expression string

	deep, lazy, sync, user bool
	before, posted         func()

	active bool
	dirty  bool
	value  any

	deps      []*Dep
	newDeps   []*Dep
	depIDs    mapset.Set[uint64]
	newDepIDs mapset.Set[uint64]
}

// NewWatcher constructs a watcher over a getter function. Non-lazy watchers
// evaluate immediately to establish their initial read-set.
func NewWatcher(rt *Runtime, getter GetterFunc, cb Callback, opts *WatcherOptions) *Watcher {
	if opts == nil {
		opts = &WatcherOptions{}
	}
	w := &Watcher{
		rt:        rt,
		id:        rt.nextWatcherID(),
		getter:    getter,
		cb:        cb,
		deep:      opts.Deep,
		lazy:      opts.Lazy,
		sync:      opts.Sync,
		user:      opts.User,
		before:    opts.Before,
		posted:    opts.Posted,
		active:    true,
		dirty:     opts.Lazy,
		depIDs:    mapset.NewThreadUnsafeSet[uint64](),
		newDepIDs: mapset.NewThreadUnsafeSet[uint64](),
	}
	if !w.lazy {
		w.value = w.get()
	}
	return w
}

// NewPathWatcher constructs a watcher whose evaluation source is a dotted
// path expression resolved against owner.
func NewPathWatcher(rt *Runtime, owner *Map, path string, cb Callback, opts *WatcherOptions) *Watcher {
	getter := parsePath(path)
	w := NewWatcher(rt, func() any { return getter(owner) }, cb, opts)
	w.expression = path
	return w
}

// ID is the watcher's creation-order priority: lower ids flush first.
func (w *Watcher) ID() uint64 { return w.id }

// Active reports whether the watcher still reacts to invalidation.
func (w *Watcher) Active() bool { return w.active }

// get evaluates the source with this watcher as the active target,
// performs deep traversal when configured, and reconciles the dep set.
func (w *Watcher) get() any {
	w.rt.pushTarget(w)
	var value any
	func() {
		if w.user {
			defer func() {
				if r := recover(); r != nil {
					w.rt.handleError(w, fmt.Errorf("getter for watcher %q: %w", w.expression, recovered(r)))
				}
			}()
		} else {
			defer func() {
				if r := recover(); r != nil {
					// A broken render cannot safely continue; restore the
					// target stack and rethrow.
					w.rt.popTarget()
					w.cleanupDeps()
					panic(r)
				}
			}()
		}
		value = w.getter()
	}()
	if w.deep {
		traverse(value)
	}
	w.rt.popTarget()
	w.cleanupDeps()
	return value
}

// addDep records a dep read during the current evaluation, subscribing to
// it only if last round's set did not already contain it.
func (w *Watcher) addDep(dep *Dep) {
	if w.newDepIDs.Contains(dep.id) {
		return
	}
	w.newDepIDs.Add(dep.id)
	w.newDeps = append(w.newDeps, dep)
	if !w.depIDs.Contains(dep.id) {
		dep.addSub(w)
	}
}

// cleanupDeps unsubscribes from deps read last round but not this round,
// then swaps the generations.
func (w *Watcher) cleanupDeps() {
	for _, dep := range w.deps {
		if !w.newDepIDs.Contains(dep.id) {
			dep.removeSub(w)
		}
	}
	w.deps, w.newDeps = w.newDeps, w.deps[:0]
	w.depIDs, w.newDepIDs = w.newDepIDs, w.depIDs
	w.newDepIDs.Clear()
}

// update is the invalidation entry point called by a dep this watcher
// subscribes to.
func (w *Watcher) update() {
	switch {
	case w.lazy:
		w.dirty = true
	case w.sync:
		w.run()
	default:
		w.rt.sched.enqueue(w)
	}
}

// run re-evaluates and emits the callback when the result changed by
// identity, is structured (structured values mutate in place without
// identity change), or the watcher is deep.
func (w *Watcher) run() {
	if !w.active {
		return
	}
	value := w.get()
	if !sameValue(value, w.value) || isStructured(value) || w.deep {
		oldValue := w.value
		w.value = value
		w.emit(value, oldValue)
	}
}

func (w *Watcher) emit(value, oldValue any) {
	if w.cb == nil {
		return
	}
	if w.user {
		defer func() {
			if r := recover(); r != nil {
				w.rt.handleError(w, fmt.Errorf("callback for watcher %q: %w", w.expression, recovered(r)))
			}
		}()
	}
	w.cb(value, oldValue)
}

// Value returns the cached result, recomputing a dirty lazy watcher first
// and chaining its dep set into any enclosing computation.
func (w *Watcher) Value() any {
	if w.dirty {
		w.value = w.get()
		w.dirty = false
	}
	if w.rt.target() != nil {
		w.depend()
	}
	return w.value
}

// depend registers every dep of this watcher with the current target.
func (w *Watcher) depend() {
	for _, dep := range w.deps {
		dep.Depend(w.rt)
	}
}

// Teardown unsubscribes from every dep and marks the watcher inactive; an
// inactive watcher ignores pending invalidation.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	for _, dep := range w.deps {
		dep.removeSub(w)
	}
	w.deps = nil
	w.active = false
}
