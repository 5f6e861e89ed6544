package reactive

import "sync"

// Loop is a single-goroutine task executor that makes the runtime's
// single-logical-thread contract concrete. All reactive mutation and
// evaluation for a runtime bound to a loop happens on the loop goroutine;
// the runtime's deferred flush is submitted as the next loop task, so it
// runs after the current synchronous task completes and before any later
// one, in submission order.
type Loop struct {
	rt *Runtime

	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
	stop  chan struct{}
	done  chan struct{}
}

// NewLoop starts a loop bound to rt and wires the runtime's schedule hook
// to it.
func NewLoop(rt *Runtime) *Loop {
	l := &Loop{
		rt:   rt,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	rt.OnSchedule = func() {
		// Invoked on the loop goroutine while a task runs; queueing keeps
		// FIFO order so the flush follows the current task immediately.
		l.Do(rt.Flush)
	}
	go l.run()
	return l
}

// Do submits fn to run on the loop goroutine. It never blocks.
func (l *Loop) Do(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// DoWait submits fn and blocks until it has run.
func (l *Loop) DoWait(fn func()) {
	ran := make(chan struct{})
	l.Do(func() {
		defer close(ran)
		fn()
	})
	<-ran
}

// Stop ends the loop after the already-submitted tasks finish.
func (l *Loop) Stop() {
	close(l.stop)
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		task := l.pop()
		if task != nil {
			task()
			continue
		}
		select {
		case <-l.wake:
		case <-l.stop:
			// Drain what was submitted before the stop.
			for task := l.pop(); task != nil; task = l.pop() {
				task()
			}
			return
		}
	}
}

func (l *Loop) pop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil
	}
	task := l.tasks[0]
	l.tasks = l.tasks[1:]
	return task
}
