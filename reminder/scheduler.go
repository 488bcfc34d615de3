// Package reminder arms notifications for a boss schedule and keeps the
// countdown shown to the user.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"libdb.so/boss-reminder/clocker"
	"libdb.so/boss-reminder/notify"
	"libdb.so/boss-reminder/schedule"
)

// NotificationTitle is the title of every boss notification.
const NotificationTitle = "🎮 NotiBoss - แจ้งเตือนบอส"

// NewNotification creates the notification shown for e.
func NewNotification(e schedule.Event) notify.Notification {
	return notify.Notification{
		Title: NotificationTitle,
		Body: fmt.Sprintf("บอส %s จะเกิดในอีก %d นาที (%s)",
			e.DisplayName(), int(schedule.LeadTime/time.Minute), schedule.FormatTime(e.At)),
		Key: e.Key(),
	}
}

// SchedulerState is the mutable state owned by a Scheduler.
type SchedulerState struct {
	// Schedule is the schedule that was last armed.
	Schedule schedule.Schedule
	// Armed is true between Arm and Cancel.
	Armed bool

	timers []clocker.Timer
	// cancel cancels the context notifications of the armed schedule are
	// shown with.
	cancel context.CancelFunc
	// generation is bumped every time the timers are replaced. A timer that
	// fires with an older generation belongs to a cancelled schedule.
	generation uint64
}

// ArmResult counts what Arm did with each event.
type ArmResult struct {
	// Delayed is the number of notifications waiting on a timer.
	Delayed int
	// Immediate is the number of notifications shown during Arm because the
	// lead time had already started.
	Immediate int
	// Skipped is the number of events that had already happened.
	Skipped int
}

// Scheduler shows one notification per event, schedule.LeadTime before it.
// It is safe for concurrent use. Notifications are shown outside the lock,
// so a slow gateway never blocks Cancel.
type Scheduler struct {
	clock   clocker.Clock
	gateway notify.Gateway

	mu    sync.Mutex
	state SchedulerState
}

// NewScheduler creates a new scheduler. If clock is nil, the wall clock is
// used.
func NewScheduler(clock clocker.Clock, gateway notify.Gateway) *Scheduler {
	if clock == nil {
		clock = clocker.Real
	}
	return &Scheduler{
		clock:   clock,
		gateway: gateway,
	}
}

// Arm cancels every outstanding timer and arms the given schedule. An event
// whose trigger instant is in the future gets a timer; an event that is
// already inside its lead time is notified right away, before Arm returns;
// an event that has already happened is ignored.
//
// Notifications are shown with a context derived from ctx, which Cancel
// cancels.
func (s *Scheduler) Arm(ctx context.Context, sched schedule.Schedule) ArmResult {
	s.mu.Lock()

	s.cancelLocked()
	s.state.Schedule = sched
	s.state.Armed = true

	ctx, cancel := context.WithCancel(ctx)
	s.state.cancel = cancel

	generation := s.state.generation
	now := s.clock.Now()

	var result ArmResult
	var immediate []schedule.Event
	for _, e := range sched {
		triggerAt := e.TriggerAt()

		switch {
		case triggerAt.After(now):
			e := e
			timer := s.clock.AfterFunc(triggerAt.Sub(now), func() {
				s.fire(ctx, generation, e)
			})
			s.state.timers = append(s.state.timers, timer)
			result.Delayed++

			slog.DebugContext(ctx,
				"notification armed",
				"event", e.Name,
				"trigger_at", triggerAt)

		case e.At.After(now):
			result.Immediate++
			immediate = append(immediate, e)

		default:
			result.Skipped++
			slog.DebugContext(ctx,
				"not arming elapsed event",
				"event", e.Name,
				"at", e.At)
		}
	}

	s.mu.Unlock()

	for _, e := range immediate {
		s.emit(ctx, e)
	}

	return result
}

// Cancel stops every outstanding timer and disarms the scheduler. No
// notification from the cancelled schedule starts after Cancel returns, and
// one that is still being shown has its context cancelled.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.state.Schedule = nil
	s.state.Armed = false
}

func (s *Scheduler) cancelLocked() {
	for _, t := range s.state.timers {
		t.Stop()
	}
	s.state.timers = nil
	s.state.generation++

	if s.state.cancel != nil {
		s.state.cancel()
		s.state.cancel = nil
	}
}

// Armed returns true if a schedule is armed.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Armed
}

// Schedule returns the armed schedule.
func (s *Scheduler) Schedule() schedule.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Schedule
}

func (s *Scheduler) fire(ctx context.Context, generation uint64, e schedule.Event) {
	s.mu.Lock()
	current := s.state.generation
	s.mu.Unlock()

	// Stop can lose the race against a timer that already started running.
	if generation != current {
		slog.DebugContext(ctx,
			"dropping notification from cancelled schedule",
			"event", e.Name)
		return
	}

	s.emit(ctx, e)
}

// emit shows the notification for e. It is called without mu held, since a
// gateway may take a while; ctx is cancelled once the schedule is.
func (s *Scheduler) emit(ctx context.Context, e schedule.Event) {
	if s.gateway == nil {
		return
	}
	if ctx.Err() != nil {
		slog.DebugContext(ctx,
			"dropping notification from cancelled schedule",
			"event", e.Name)
		return
	}

	n := NewNotification(e)
	if err := s.gateway.Show(ctx, n); err != nil {
		slog.WarnContext(ctx,
			"failed to show notification",
			"event", e.Name,
			"key", n.Key,
			"err", err)
		return
	}

	slog.DebugContext(ctx,
		"notification shown",
		"event", e.Name,
		"key", n.Key)
}
