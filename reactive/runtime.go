// Package reactive implements a fine-grained dependency-tracking system:
// observable map and list wrappers, watcher computations with automatic
// subscription churn, and a batching scheduler that coalesces re-runs onto
// a deferred flush boundary.
package reactive

import (
	"fmt"
	"log"
)

// OnErrorFunc receives errors raised while evaluating a watcher. The watcher
// may be nil for errors raised outside any computation, such as a panicking
// deferred tick callback.
type OnErrorFunc func(w *Watcher, err error)

// Runtime owns every piece of cross-computation shared state: the
// currently-evaluating watcher stack, the scheduler, the deferred tick
// queue, and the observation toggle. All of it is mutated from a single
// logical thread of control; a Runtime performs no locking of its own.
type Runtime struct {
	sched *Scheduler

	// Stack of currently evaluating watchers. The top entry is the
	// subscription target for every dependency read.
	targets []*Watcher

	ticks   []tickTurn
	ticking bool

	// OnSchedule fires when the first tick callback of a turn is queued.
	// Hosts use it to wake their frame loop and call Flush; a runtime bound
	// to a Loop has it wired automatically.
	OnSchedule func()

	// Warn is the reporting channel for non-fatal conditions: invalid
	// mutations, divergent update cycles, swallowed user errors.
	Warn func(format string, args ...any)

	onError OnErrorFunc

	watcherUID uint64
	depUID     uint64

	observeDepth int // >0 suspends observation of newly assigned values
}

type tickTurn struct {
	fn   func()
	done chan struct{}
}

// NewRuntime creates a runtime. A nil onError falls back to logging.
func NewRuntime(onError OnErrorFunc) *Runtime {
	rt := &Runtime{
		onError: onError,
		Warn:    defaultWarn,
	}
	rt.sched = newScheduler(rt)
	return rt
}

func (rt *Runtime) nextDepID() uint64 {
	rt.depUID++
	return rt.depUID
}

func (rt *Runtime) nextWatcherID() uint64 {
	rt.watcherUID++
	return rt.watcherUID
}

func (rt *Runtime) pushTarget(w *Watcher) {
	rt.targets = append(rt.targets, w)
}

func (rt *Runtime) popTarget() {
	rt.targets = rt.targets[:len(rt.targets)-1]
}

// target returns the currently evaluating watcher, or nil.
func (rt *Runtime) target() *Watcher {
	if len(rt.targets) == 0 {
		return nil
	}
	return rt.targets[len(rt.targets)-1]
}

// ToggleObserving suspends or resumes observation of newly assigned nested
// values. It does not affect wrappers that are already observed, only
// whether freshly assigned structures get wrapped. Used while copying in
// externally-owned values, such as incoming parameters.
func (rt *Runtime) ToggleObserving(on bool) {
	if on {
		if rt.observeDepth > 0 {
			rt.observeDepth--
		}
	} else {
		rt.observeDepth++
	}
}

func (rt *Runtime) observing() bool {
	return rt.observeDepth == 0
}

// handleError routes an evaluation error raised by the given watcher (nil
// for tick callbacks) through the central handler.
func (rt *Runtime) handleError(w *Watcher, err error) {
	if rt.onError != nil {
		rt.onError(w, err)
		return
	}
	log.Printf("reactive: unhandled error: %v", err)
}

func defaultWarn(format string, args ...any) {
	log.Printf("warn: "+format, args...)
}

func recovered(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// NextTick queues callbacks to run on the next flush turn and returns a
// channel closed once every callback queued for that turn has run. With no
// callbacks it is purely awaitable.
func (rt *Runtime) NextTick(fns ...func()) <-chan struct{} {
	done := make(chan struct{})
	if len(fns) == 0 {
		rt.ticks = append(rt.ticks, tickTurn{done: done})
	}
	for _, fn := range fns {
		rt.ticks = append(rt.ticks, tickTurn{fn: fn, done: done})
	}
	if !rt.ticking {
		rt.ticking = true
		if rt.OnSchedule != nil {
			rt.OnSchedule()
		}
	}
	return done
}

// Flush runs every deferred tick callback queued so far, in order. A panic
// in one callback is reported and does not prevent the remaining callbacks
// of the turn from running. Callbacks queued while flushing run in the same
// call, after the current batch.
func (rt *Runtime) Flush() {
	for len(rt.ticks) > 0 {
		rt.ticking = false
		pending := rt.ticks
		rt.ticks = nil
		for _, tk := range pending {
			rt.runTick(tk)
		}
		for _, tk := range pending {
			select {
			case <-tk.done:
			default:
				close(tk.done)
			}
		}
	}
}

// PendingTicks reports how many deferred callbacks are waiting for Flush.
func (rt *Runtime) PendingTicks() int { return len(rt.ticks) }

func (rt *Runtime) runTick(tk tickTurn) {
	if tk.fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			rt.handleError(nil, fmt.Errorf("tick callback: %w", recovered(r)))
		}
	}()
	tk.fn()
}

// QueueActivated registers an owner notification for the
// mutation-tree-activated pass of the next flush. Notifications run in
// reverse registration order, deepest owner first.
func (rt *Runtime) QueueActivated(fn func()) {
	rt.sched.queueActivated(fn)
}
