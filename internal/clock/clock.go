package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for the checkout and payment simulations so tests can
// advance virtual time instead of sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

// System returns a Clock backed by the wall clock.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is a virtual clock. Scheduled functions run synchronously on the
// goroutine that calls Advance, in due-time order.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
}

type fakeTimer struct {
	clock   *Fake
	due     time.Time
	fn      func()
	ch      chan time.Time
	stopped bool
	fired   bool
}

// NewFake returns a Fake positioned at an arbitrary fixed instant.
func NewFake() *Fake {
	return &Fake{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clock: f, due: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.pending = append(f.pending, t)
	return t.ch
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clock: f, due: f.now.Add(d), fn: fn}
	f.pending = append(f.pending, t)
	return t
}

// Advance moves the virtual clock forward, firing every timer whose due time
// is reached. Callbacks scheduled while advancing are honored within the same
// call if they fall inside the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		next := f.next(target)
		if next == nil {
			break
		}
		f.now = next.due
		next.fired = true
		fn := next.fn
		ch := next.ch
		f.mu.Unlock()
		if fn != nil {
			fn()
		}
		if ch != nil {
			ch <- next.due
		}
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

// next pops the earliest unfired timer due at or before target.
func (f *Fake) next(target time.Time) *fakeTimer {
	sort.SliceStable(f.pending, func(i, j int) bool {
		return f.pending[i].due.Before(f.pending[j].due)
	})
	for i, t := range f.pending {
		if t.stopped || t.fired {
			continue
		}
		if t.due.After(target) {
			return nil
		}
		f.pending = append(f.pending[:i], f.pending[i+1:]...)
		return t
	}
	return nil
}

// Waiters reports how many timers are pending. Tests use it to detect a
// goroutine blocked on After before advancing.
func (f *Fake) Waiters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
