package reactive

import "sort"

// MaxUpdateCount is the re-enqueue ceiling for a single watcher within one
// flush. Exceeding it is treated as a diverging update cycle: the watcher
// is suppressed for the remainder of the flush and the condition reported.
const MaxUpdateCount = 100

// Scheduler batches, orders, and deduplicates watcher re-runs onto one
// deferred flush per turn. Watchers flush in ascending creation order,
// which gives ancestor-before-descendant evaluation since owners are
// constructed before their children.
type Scheduler struct {
	rt         *Runtime
	queue      []*Watcher
	has        map[uint64]bool
	circular   map[uint64]int
	suppressed map[uint64]bool
	activated  []func()
	waiting    bool
	flushing   bool
	index      int
}

func newScheduler(rt *Runtime) *Scheduler {
	return &Scheduler{
		rt:         rt,
		has:        map[uint64]bool{},
		circular:   map[uint64]int{},
		suppressed: map[uint64]bool{},
	}
}

// Enqueue schedules a watcher for the next flush, deduplicating by id.
// During a flush, a watcher whose priority falls behind the cursor is
// spliced in so it still re-runs within the same flush.
func (s *Scheduler) Enqueue(w *Watcher) { s.enqueue(w) }

func (s *Scheduler) enqueue(w *Watcher) {
	if s.has[w.id] || s.suppressed[w.id] {
		return
	}
	s.has[w.id] = true
	if !s.flushing {
		s.queue = append(s.queue, w)
	} else {
		// Keep the remainder of the queue sorted by id so the watcher runs
		// at its priority slot; if that slot is behind the cursor it runs
		// immediately next.
		i := len(s.queue) - 1
		for i > s.index && s.queue[i].id > w.id {
			i--
		}
		s.queue = append(s.queue, nil)
		copy(s.queue[i+2:], s.queue[i+1:])
		s.queue[i+1] = w
	}
	if !s.waiting {
		s.waiting = true
		s.rt.NextTick(s.flush)
	}
}

func (s *Scheduler) queueActivated(fn func()) {
	s.activated = append(s.activated, fn)
	if !s.waiting {
		s.waiting = true
		s.rt.NextTick(s.flush)
	}
}

// flush drains the queue in priority order, resets the scheduler, then runs
// the two secondary notification passes. State must reset before the
// secondary passes: a mutation made inside one schedules a fresh turn, which
// the host's Flush drains in the same call, instead of landing in the dead
// queue of a finished flush.
func (s *Scheduler) flush() {
	// A watcher evaluation panic must not leave the scheduler wedged.
	defer func() {
		if s.flushing {
			s.reset()
		}
	}()
	s.flushing = true

	sort.Slice(s.queue, func(i, j int) bool {
		return s.queue[i].id < s.queue[j].id
	})

	// The queue length is re-read each iteration: watchers may enqueue
	// more watchers as they run.
	for s.index = 0; s.index < len(s.queue); s.index++ {
		w := s.queue[s.index]
		if s.suppressed[w.id] {
			continue
		}
		if w.before != nil {
			w.before()
		}
		delete(s.has, w.id)
		w.run()
		// A watcher re-queued during its own run is in a feedback loop
		// candidate; count it and cut it off at the ceiling.
		if s.has[w.id] {
			s.circular[w.id]++
			if s.circular[w.id] > MaxUpdateCount {
				s.suppressed[w.id] = true
				delete(s.has, w.id)
				s.rt.Warn("possible infinite update loop: watcher %d re-ran %d times in one flush, suppressing it for the rest of this flush (expression %q)",
					w.id, s.circular[w.id], w.expression)
			}
		}
	}

	flushed := make([]*Watcher, len(s.queue))
	copy(flushed, s.queue)
	activated := s.activated
	s.reset()

	// Secondary passes run in reverse registration order so the deepest,
	// most recently registered owner is notified first.
	for i := len(activated) - 1; i >= 0; i-- {
		activated[i]()
	}
	notified := map[uint64]bool{}
	for i := len(flushed) - 1; i >= 0; i-- {
		w := flushed[i]
		if notified[w.id] {
			continue
		}
		notified[w.id] = true
		if w.active && w.posted != nil {
			w.posted()
		}
	}
}

// reset clears every piece of flush state so the scheduler is never left
// wedged, error or not.
func (s *Scheduler) reset() {
	s.queue = s.queue[:0]
	s.activated = nil
	s.has = map[uint64]bool{}
	s.circular = map[uint64]int{}
	s.suppressed = map[uint64]bool{}
	s.waiting = false
	s.flushing = false
	s.index = 0
}
