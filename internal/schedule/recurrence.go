package schedule

import (
	"slices"
	"time"
)

// Recurrence is a repeating action kept as inspectable state. The scheduler
// re-enqueues it after every fire.
type Recurrence struct {
	Name   string
	Period time.Duration
	// Interval, when set, overrides Period for the gap after each fire.
	Interval func() time.Duration
	// Next is the due time of the pending occurrence.
	Next   time.Time
	Fires  int
	Action Action

	stopped bool
}

func (r *Recurrence) interval() time.Duration {
	d := r.Period
	if r.Interval != nil {
		d = r.Interval()
	}
	if d <= 0 {
		d = time.Hour
	}
	return d
}

// Stop ends the chain. The pending occurrence is discarded when it comes due.
func (r *Recurrence) Stop() {
	r.stopped = true
}

// Every registers r with its first occurrence at r.Next and returns it.
func (s *Scheduler) Every(r *Recurrence) *Recurrence {
	s.recurs = append(s.recurs, r)
	s.push(&item{when: r.Next, name: r.Name, rec: r})
	return r
}

// Recurrences returns the live recurrences in registration order.
func (s *Scheduler) Recurrences() []*Recurrence {
	s.recurs = slices.DeleteFunc(s.recurs, func(r *Recurrence) bool { return r.stopped })
	return slices.Clone(s.recurs)
}
