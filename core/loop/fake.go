package loop

import (
	"sort"
	"time"
)

// Fake is a virtual-time Loop for tests. It is driven by the test goroutine:
// nothing runs until Drain or Advance is called. Off-loop work runs inline unless held.
type Fake struct {
	now    time.Time
	seq    int
	timers []*fakeTimer
	posted []func()

	hold bool
	held []func()
}

var _ Loop = (*Fake)(nil)

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time { return f.now }

func (f *Fake) Post(fn func()) { f.posted = append(f.posted, fn) }

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	f.seq++
	t := &fakeTimer{loop: f, when: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *Fake) Go(fn func()) {
	if f.hold {
		f.held = append(f.held, fn)
		return
	}
	fn()
}

// Hold makes Go queue work instead of running it, until Release is called.
func (f *Fake) Hold(hold bool) { f.hold = hold }

// Held returns the number of queued off-loop work items.
func (f *Fake) Held() int { return len(f.held) }

// Release runs the i-th held work item, then drains posted callbacks.
func (f *Fake) Release(i int) {
	fn := f.held[i]
	f.held = append(f.held[:i], f.held[i+1:]...)
	fn()
	f.Drain()
}

// Pending returns the number of live timers.
func (f *Fake) Pending() int { return len(f.timers) }

// Drain runs posted callbacks until none are left.
func (f *Fake) Drain() {
	for len(f.posted) > 0 {
		fn := f.posted[0]
		f.posted = f.posted[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing every timer that becomes due, in order.
func (f *Fake) Advance(d time.Duration) {
	f.AdvanceTo(f.now.Add(d))
}

// AdvanceTo moves the clock to t (never backwards), firing due timers in order.
func (f *Fake) AdvanceTo(t time.Time) {
	for {
		f.Drain()
		next := f.nextDue(t)
		if next == nil {
			break
		}
		f.remove(next)
		if next.when.After(f.now) {
			f.now = next.when
		}
		next.fn()
	}
	if t.After(f.now) {
		f.now = t
	}
	f.Drain()
}

func (f *Fake) nextDue(limit time.Time) *fakeTimer {
	if len(f.timers) == 0 {
		return nil
	}
	sort.SliceStable(f.timers, func(i, j int) bool {
		if f.timers[i].when.Equal(f.timers[j].when) {
			return f.timers[i].seq < f.timers[j].seq
		}
		return f.timers[i].when.Before(f.timers[j].when)
	})
	if f.timers[0].when.After(limit) {
		return nil
	}
	return f.timers[0]
}

func (f *Fake) remove(t *fakeTimer) bool {
	for i, ft := range f.timers {
		if ft == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return true
		}
	}
	return false
}

type fakeTimer struct {
	loop *Fake
	when time.Time
	seq  int
	fn   func()
}

func (t *fakeTimer) Stop() bool { return t.loop.remove(t) }
