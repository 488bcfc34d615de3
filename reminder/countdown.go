package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"libdb.so/boss-reminder/clocker"
	"libdb.so/boss-reminder/schedule"
)

// CountdownInterval is how often the countdown is recomputed.
const CountdownInterval = 1 * time.Second

// NotifiedText is shown in place of the countdown once an event's
// notification is due.
const NotifiedText = "แจ้งเตือนแล้ว"

// Row is the countdown state of one displayed event.
type Row struct {
	Event schedule.Event
	// Remaining is the time left until the notification, clamped to zero.
	Remaining time.Duration
	// Notified is true once the trigger instant has been reached.
	Notified bool
	// Imminent is true while less than a minute is left, and stays true once
	// notified.
	Imminent bool
}

// NewRow computes the countdown state of e at now.
func NewRow(e schedule.Event, now time.Time) Row {
	remaining := e.TriggerAt().Sub(now)
	if remaining <= 0 {
		return Row{
			Event:    e,
			Notified: true,
			Imminent: true,
		}
	}
	return Row{
		Event:     e,
		Remaining: remaining,
		Imminent:  remaining < time.Minute,
	}
}

// Countdown formats the remaining time as minutes:seconds, truncating, e.g.
// "4:05" or "125:00". A notified row shows NotifiedText.
func (r Row) Countdown() string {
	if r.Notified {
		return NotifiedText
	}
	minutes := int64(r.Remaining / time.Minute)
	seconds := int64(r.Remaining % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// Rows computes the countdown state of every event at now.
func Rows(events schedule.Schedule, now time.Time) []Row {
	rows := make([]Row, len(events))
	for i, e := range events {
		rows[i] = NewRow(e, now)
	}
	return rows
}

// Presenter keeps the list of displayed events and projects the clock onto
// them. It never modifies a schedule.
type Presenter struct {
	clock clocker.Clock

	mu        sync.Mutex
	displayed schedule.Schedule
}

// NewPresenter creates a new presenter. If clock is nil, the wall clock is
// used.
func NewPresenter(clock clocker.Clock) *Presenter {
	if clock == nil {
		clock = clocker.Real
	}
	return &Presenter{clock: clock}
}

// Show replaces the displayed events with those in s whose notification is
// still due. It returns the displayed events.
func (p *Presenter) Show(s schedule.Schedule) schedule.Schedule {
	active := s.Active(p.clock.Now())

	p.mu.Lock()
	p.displayed = active
	p.mu.Unlock()

	return active
}

// Displayed returns the displayed events.
func (p *Presenter) Displayed() schedule.Schedule {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.displayed
}

// Rows returns the countdown of every displayed event at the current time.
func (p *Presenter) Rows() []Row {
	return Rows(p.Displayed(), p.clock.Now())
}

// Run calls render with fresh rows on every tick until ctx is done. Ticks
// with nothing displayed are skipped.
func (p *Presenter) Run(ctx context.Context, tick <-chan time.Time, render func([]Row)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			if rows := p.Rows(); len(rows) > 0 {
				render(rows)
			}
		}
	}
}
