package clocker

import (
	"time"
)

// Clock tells the time and schedules one-shot callbacks.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine after d has elapsed. A
	// non-positive d fires as soon as possible.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a callback scheduled with Clock.AfterFunc.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback has already fired or the timer was already stopped.
	Stop() bool
}

// Real is the wall clock.
var Real Clock = realClock{}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Ticker holds the channel that delivers ticks
type Ticker struct {
	C    <-chan time.Time
	done chan struct{}
}

// NewTicker returns a new ticker, similar to stdlib's time.Ticker, except
// that every tick lands on a multiple of d.
func NewTicker(d time.Duration) *Ticker {
	c := make(chan time.Time)
	t := &Ticker{
		C:    c,
		done: make(chan struct{}),
	}

	go func() {
		timer := time.NewTimer(NextFrame(time.Now(), d))
		for {
			select {
			case <-t.done:
				timer.Stop()
				return
			case now := <-timer.C:
				// Drop the tick if nobody is listening; the countdown
				// only cares about the latest one.
				select {
				case c <- now:
				default:
				}
				timer.Reset(NextFrame(time.Now(), d))
			}
		}
	}()

	return t
}

// Stop stops the ticker
func (t *Ticker) Stop() {
	close(t.done)
}

// Tick is a shorthand for NewTicker(d).C.
func Tick(d time.Duration) <-chan time.Time {
	return NewTicker(d).C
}

// NextFrame returns how long to wait from now until the next multiple of
// frame. It never returns zero.
func NextFrame(now time.Time, frame time.Duration) time.Duration {
	tick := now.Round(frame)
	if s := tick.Sub(now); s > 0 {
		return s
	}
	return tick.Add(frame).Sub(now)
}
