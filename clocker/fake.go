package clocker

import (
	"slices"
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Callbacks run synchronously inside
// Advance and Set, in deadline order, which makes it suitable for tests
// that must not sleep.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

var _ Clock = (*Fake)(nil)

// NewFake creates a fake clock stopped at now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now implements Clock.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc implements Clock. Even a callback that is already due only runs
// on the next Advance or Set.
func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{
		clock: c,
		at:    c.now.Add(d),
		seq:   c.seq,
		f:     f,
	}
	c.timers = append(c.timers, t)
	return t
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Advance moves the clock forward by d and fires every timer that became
// due.
func (c *Fake) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

// Set moves the clock to t and fires every timer that became due. The clock
// steps through each deadline on the way, so callbacks observe their own
// deadline as Now. Moving the clock backwards fires nothing.
func (c *Fake) Set(t time.Time) {
	for {
		c.mu.Lock()
		due := c.popDue(t)
		if due == nil {
			if t.After(c.now) {
				c.now = t
			}
			c.mu.Unlock()
			return
		}
		if due.at.After(c.now) {
			c.now = due.at
		}
		c.mu.Unlock()

		due.f()
	}
}

func (c *Fake) popDue(until time.Time) *fakeTimer {
	slices.SortFunc(c.timers, func(a, b *fakeTimer) int {
		if a.at.Equal(b.at) {
			return a.seq - b.seq
		}
		return a.at.Compare(b.at)
	})
	if len(c.timers) == 0 || c.timers[0].at.After(until) {
		return nil
	}
	t := c.timers[0]
	c.timers = c.timers[1:]
	return t
}

type fakeTimer struct {
	clock *Fake
	at    time.Time
	seq   int
	f     func()
}

func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.Index(c.timers, t)
	if i == -1 {
		return false
	}
	c.timers = slices.Delete(c.timers, i, i+1)
	return true
}
