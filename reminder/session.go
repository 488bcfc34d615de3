package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"libdb.so/boss-reminder/clocker"
	"libdb.so/boss-reminder/notify"
	"libdb.so/boss-reminder/schedule"
	"libdb.so/boss-reminder/store"
)

var (
	// ErrEmptyInput is returned by Run when there is no schedule text.
	ErrEmptyInput = errors.New("schedule text is empty")
	// ErrNothingToSchedule is returned by Run when the text has no event
	// that is still in the future.
	ErrNothingToSchedule = errors.New("no upcoming events in schedule")
	// ErrAlreadyArmed is returned by Run when a schedule is already armed.
	// Clear it first, or use Replace.
	ErrAlreadyArmed = errors.New("a schedule is already armed")
)

// SessionOpts are options for NewSession.
type SessionOpts struct {
	// Clock defaults to the wall clock.
	Clock clocker.Clock
	// Gateway shows notifications. Required.
	Gateway notify.Gateway
	// Store persists the input and schedule. Defaults to an in-memory store.
	Store store.Store
	// Status receives user-facing status messages. Defaults to LogStatus.
	Status StatusSink
	// BuildOpts is passed to schedule.Build. Its Now is always replaced by
	// the clock's time.
	BuildOpts schedule.BuildOpts
}

// Session ties the schedule text, the scheduler, the countdown and the
// store together. Its methods correspond to what the user can do: run a
// schedule, clear everything, and pick up where the last process left off.
type Session struct {
	opts      SessionOpts
	scheduler *Scheduler
	presenter *Presenter

	// mu serializes user actions, so a Run cannot interleave with a Clear.
	mu    sync.Mutex
	input string
}

// NewSession creates a new session.
func NewSession(opts SessionOpts) *Session {
	if opts.Clock == nil {
		opts.Clock = clocker.Real
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Status == nil {
		opts.Status = LogStatus{}
	}

	return &Session{
		opts:      opts,
		scheduler: NewScheduler(opts.Clock, opts.Gateway),
		presenter: NewPresenter(opts.Clock),
	}
}

// Scheduler returns the session's scheduler.
func (s *Session) Scheduler() *Scheduler { return s.scheduler }

// Presenter returns the session's countdown presenter.
func (s *Session) Presenter() *Presenter { return s.presenter }

// Input returns the schedule text last run or restored.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Run builds a schedule from text and arms it. It refuses to run while a
// schedule is already armed. The non-fatal conditions ErrAlreadyArmed,
// ErrEmptyInput and ErrNothingToSchedule are reported to the status sink
// and returned.
func (s *Session) Run(ctx context.Context, text string) (schedule.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(ctx, text)
}

// Replace cancels the armed schedule, if any, and runs text in its place.
// If text yields nothing to schedule, the old schedule stays cancelled.
func (s *Session) Replace(ctx context.Context, text string) (schedule.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.Cancel()
	s.presenter.Show(nil)
	return s.run(ctx, text)
}

func (s *Session) run(ctx context.Context, text string) (schedule.Schedule, error) {
	if s.scheduler.Armed() {
		s.report(ctx, statusAlreadyRunning, SeverityError)
		return nil, ErrAlreadyArmed
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.report(ctx, statusEmptyInput, SeverityError)
		return nil, ErrEmptyInput
	}

	buildOpts := s.opts.BuildOpts
	buildOpts.Now = s.opts.Clock.Now()

	sched := schedule.Build(text, buildOpts)
	if len(sched) == 0 {
		s.report(ctx, statusNothingToSchedule, SeverityError)
		return nil, ErrNothingToSchedule
	}

	result := s.scheduler.Arm(ctx, sched)
	slog.InfoContext(ctx,
		"schedule armed",
		"events", len(sched),
		"delayed", result.Delayed,
		"immediate", result.Immediate)

	s.input = text
	s.save(ctx, sched)
	s.presenter.Show(sched)

	s.report(ctx, fmt.Sprintf(statusStarted, len(sched)), SeveritySuccess)
	return sched, nil
}

// Clear cancels every notification and forgets the schedule, both in memory
// and in the store.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.Cancel()
	s.presenter.Show(nil)
	s.input = ""

	if err := s.opts.Store.Clear(ctx); err != nil {
		slog.ErrorContext(ctx,
			"failed to clear saved schedule",
			"err", err)
	}

	s.report(ctx, statusCleared, SeveritySuccess)
}

// Restore loads the saved input and schedule. With arm set, the restored
// schedule is armed again, unless every event in it has already happened;
// events that have passed in the meantime are ignored by the scheduler. Unreadable saved data is logged and treated as
// if nothing had been saved.
func (s *Session) Restore(ctx context.Context, arm bool) (schedule.Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok, err := s.opts.Store.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx,
			"failed to load saved schedule",
			"err", err)
		if !errors.Is(err, store.ErrCorrupt) {
			return nil, false
		}
		// A corrupt schedule may still come with readable input.
		snap.Schedule = nil
	}
	if !ok {
		return nil, false
	}

	s.input = snap.Input

	if len(snap.Schedule) == 0 {
		return nil, s.input != ""
	}

	if arm && !s.scheduler.Armed() && hasUpcoming(snap.Schedule, s.opts.Clock.Now()) {
		result := s.scheduler.Arm(ctx, snap.Schedule)
		slog.InfoContext(ctx,
			"restored schedule armed",
			"events", len(snap.Schedule),
			"delayed", result.Delayed,
			"immediate", result.Immediate,
			"skipped", result.Skipped)
	}

	displayed := s.presenter.Show(snap.Schedule)
	s.report(ctx, fmt.Sprintf(statusRestored, len(displayed)), SeverityInfo)

	return snap.Schedule, true
}

// CheckPermission asks for notification permission if the user has not
// been asked yet. An unavailable gateway is reported as an error, but
// scheduling still works without it.
func (s *Session) CheckPermission(ctx context.Context) notify.Permission {
	gateway := s.opts.Gateway
	if gateway == nil || !gateway.Available() {
		s.report(ctx, statusUnsupported, SeverityError)
		return notify.PermissionDenied
	}

	permission := gateway.Permission()
	if permission == notify.PermissionDefault {
		permission = gateway.RequestPermission(ctx)
		if permission == notify.PermissionGranted {
			s.report(ctx, statusPermissionGranted, SeveritySuccess)
		}
	}

	return permission
}

// Close cancels outstanding notifications without touching the store, so
// the next process can restore the schedule.
func (s *Session) Close() {
	s.scheduler.Cancel()
}

// hasUpcoming reports whether any event in sched has not happened yet.
func hasUpcoming(sched schedule.Schedule, now time.Time) bool {
	for _, e := range sched {
		if e.At.After(now) {
			return true
		}
	}
	return false
}

func (s *Session) save(ctx context.Context, sched schedule.Schedule) {
	snap := store.Snapshot{
		Input:    s.input,
		Schedule: sched,
		SavedAt:  s.opts.Clock.Now(),
	}
	if err := s.opts.Store.Save(ctx, snap); err != nil {
		slog.ErrorContext(ctx,
			"failed to save schedule",
			"err", err)
	}
}

func (s *Session) report(ctx context.Context, message string, severity Severity) {
	s.opts.Status.Report(ctx, message, severity)
}
