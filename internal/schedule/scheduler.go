// Package schedule provides the time-ordered deferred action queue.
// Actions run inline on the simulation goroutine when the engine drains
// the queue at the start of each tick.
package schedule

import (
	"container/heap"
	"fmt"
	"log/slog"
	"time"
)

// Action is a deferred state change. now is the drain time, not the time the
// action was due.
type Action func(now time.Time) error

type item struct {
	when   time.Time
	seq    uint64
	name   string
	action Action
	rec    *Recurrence
}

type queue []*item

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].when.Equal(q[j].when) {
		return q[i].seq < q[j].seq
	}
	return q[i].when.Before(q[j].when)
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(*item)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

// Scheduler is a min-heap of actions keyed by absolute sim time.
// Ties run in insertion order.
type Scheduler struct {
	q      queue
	seq    uint64
	log    *slog.Logger
	recurs []*Recurrence
}

// New creates an empty scheduler. A nil logger uses slog.Default().
func New(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{log: log}
}

// Schedule enqueues action to run once at when.
func (s *Scheduler) Schedule(when time.Time, name string, action Action) {
	s.push(&item{when: when, name: name, action: action})
}

func (s *Scheduler) push(it *item) {
	s.seq++
	it.seq = s.seq
	heap.Push(&s.q, it)
}

// Len returns the number of queued actions.
func (s *Scheduler) Len() int {
	return s.q.Len()
}

// Peek returns the due time of the earliest queued action.
func (s *Scheduler) Peek() (time.Time, bool) {
	if len(s.q) == 0 {
		return time.Time{}, false
	}
	return s.q[0].when, true
}

// call runs a and reports a panic as an error.
func call(a Action, now time.Time) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return a(now)
}

// RunDue runs every action due at or before now, earliest first. Actions
// enqueued while draining are eligible in the same call. It returns the
// number of actions run.
func (s *Scheduler) RunDue(now time.Time) int {
	ran := 0
	for len(s.q) > 0 && !s.q[0].when.After(now) {
		it := heap.Pop(&s.q).(*item)
		ran++

		if it.rec != nil {
			s.fire(it, now)
			continue
		}
		if err := call(it.action, now); err != nil {
			s.log.Warn("scheduled action failed", "action", it.name, "due", it.when, "error", err)
		}
	}
	return ran
}

// fire runs one occurrence of a recurrence and re-enqueues its successor.
// The chain survives action errors and panics.
func (s *Scheduler) fire(it *item, now time.Time) {
	r := it.rec
	if r.stopped {
		return
	}
	r.Fires++
	if err := call(r.Action, now); err != nil {
		s.log.Warn("recurring action failed", "recurrence", r.Name, "due", it.when, "fires", r.Fires, "error", err)
	}
	if r.stopped {
		return
	}
	r.Next = it.when.Add(r.interval())
	s.push(&item{when: r.Next, name: r.Name, rec: r})
}
