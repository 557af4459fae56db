// Package loop provides the single-threaded execution context shared by the dashboard pollers
// and the auto-refresh manager.
//
// Everything a Loop runs through Post or AfterFunc executes on one goroutine, one callback at a time,
// so the state those callbacks touch needs no locking. Blocking work (HTTP calls) goes through Go
// and posts its result back.
package loop

import (
	"context"
	"sync"
	"time"
)

// Timer is a scheduled wakeup.
type Timer interface {
	// Stop cancels the wakeup. Once Stop returns the callback will not run, even if it was already due.
	// It must be called from the loop. It reports whether the call prevented the callback.
	Stop() bool
}

// Loop is the scheduling surface used by the pollers and the refresh manager.
type Loop interface {
	// Now returns the loop's current time.
	Now() time.Time
	// Post queues f to run on the loop.
	Post(f func())
	// AfterFunc runs f on the loop once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
	// Go runs blocking work off the loop. The work reports back with Post.
	Go(f func())
}

// EventLoop is the real-time Loop. Run must be called for posted callbacks to execute.
type EventLoop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
	work   sync.WaitGroup

	nowFunc func() time.Time
}

var _ Loop = (*EventLoop)(nil)

func New() *EventLoop {
	return &EventLoop{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		nowFunc: time.Now,
	}
}

func (l *EventLoop) Now() time.Time { return l.nowFunc() }

func (l *EventLoop) Post(f func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, f)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs f on the loop and waits for it to return.
// It returns false without running f if the loop is closed. Never call it from the loop itself.
func (l *EventLoop) Do(f func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		f()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

func (l *EventLoop) AfterFunc(d time.Duration, f func()) Timer {
	t := &timer{}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped {
				return
			}
			t.stopped = true
			f()
		})
	})
	return t
}

func (l *EventLoop) Go(f func()) {
	l.work.Add(1)
	go func() {
		defer l.work.Done()
		f()
	}()
}

// Run executes posted callbacks until ctx is done or Close is called.
func (l *EventLoop) Run(ctx context.Context) error {
	for {
		for _, f := range l.take() {
			f()
		}
		select {
		case <-l.wake:
		case <-l.done:
			return nil
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		}
	}
}

// Close stops the loop. Pending callbacks are dropped; off-loop work is waited for.
func (l *EventLoop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.queue = nil
	close(l.done)
	l.mu.Unlock()

	l.work.Wait()
}

func (l *EventLoop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.queue
	l.queue = nil
	return q
}

type timer struct {
	t       *time.Timer
	stopped bool // loop-only
}

func (t *timer) Stop() bool {
	t.t.Stop()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}
